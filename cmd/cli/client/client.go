// Package client calls the applog API on behalf of CLI commands.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crucial707/applog/cmd/cli/config"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Body   interface{}
	// Auth adds the stored session token as a Bearer header.
	Auth bool
	// Header carries extra headers such as the application secret.
	Header map[string]string
}

// Do sends req and decodes a JSON response into out (when out is non-nil).
func Do(req Request, out interface{}) error {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequest(req.Method, config.APIURL()+req.Path, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Auth {
		token, err := config.LoadToken()
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

// errorMessage pulls "error" (and field details) out of an error body.
func errorMessage(data []byte) string {
	var e struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		return string(bytes.TrimSpace(data))
	}
	msg := e.Error
	for k, v := range e.Fields {
		msg += fmt.Sprintf("; %s: %s", k, v)
	}
	return msg
}
