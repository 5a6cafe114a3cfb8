package dictionaries

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucial707/applog/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func loggedIn(t *testing.T, apiURL string) {
	t.Helper()
	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("tok123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APPLOG_TOKEN_FILE", tokenFile)
	t.Setenv("APPLOG_API_URL", apiURL)
}

func TestListDictionaries_TableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list-dictionaries" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization: got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"dictionaries": []models.Dictionary{
				{Name: "v1", Data: models.DictionaryData{"login": {}, "logout": {}}},
				{Name: "v2", Data: models.DictionaryData{"create": {}}},
			},
		})
	}))
	defer srv.Close()
	loggedIn(t, srv.URL)

	cmd := listDictionariesCmd()
	var runErr error
	out := captureOutput(t, func() {
		runErr = cmd.RunE(cmd, []string{})
	})
	if runErr != nil {
		t.Fatalf("RunE: %v", runErr)
	}
	if !strings.Contains(out, "v1") || !strings.Contains(out, "login, logout") || !strings.Contains(out, "create") {
		t.Fatalf("expected dictionaries in output, got: %s", out)
	}
}

func TestCreateDictionary_SendsActions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/create-dictionary" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var in struct {
			Name    string   `json:"name"`
			Actions []string `json:"actions"`
		}
		_ = json.Unmarshal(body, &in)
		if in.Name != "v1" || len(in.Actions) != 2 {
			t.Errorf("unexpected payload: %s", body)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Dictionary{Name: "v1", Data: models.DictionaryDataFromActions(in.Actions)})
	}))
	defer srv.Close()
	loggedIn(t, srv.URL)

	cmd := createDictionaryCmd()
	_ = cmd.Flags().Set("name", "v1")
	_ = cmd.Flags().Set("types", "login,logout")
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	if !strings.Contains(out, "Dictionary v1 created") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestShowDictionary_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"dictionary not found"}`))
	}))
	defer srv.Close()
	loggedIn(t, srv.URL)

	cmd := showDictionaryCmd()
	err := cmd.RunE(cmd, []string{"ghost"})
	if err == nil || !strings.Contains(err.Error(), "dictionary not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}
