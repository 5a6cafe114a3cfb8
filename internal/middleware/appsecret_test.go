package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
)

type fakeApps map[string]*models.Application

func (f fakeApps) GetBySecret(_ context.Context, secret string) (*models.Application, error) {
	if a, ok := f[secret]; ok {
		return a, nil
	}
	return nil, repo.ErrNotFound
}

func TestApplicationSecret(t *testing.T) {
	apps := fakeApps{"s3cret": {ID: 1, Name: "web"}}

	var gotApp *models.Application
	var gotBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotApp, _ = GetApplication(r.Context())
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name     string
		fromBody bool
		build    func() *http.Request
		want     int
	}{
		{"header", false, func() *http.Request {
			r := httptest.NewRequest("POST", "/write", strings.NewReader(`{"login":1}`))
			r.Header.Set(SecretHeader, "s3cret")
			return r
		}, http.StatusOK},
		{"query", false, func() *http.Request {
			return httptest.NewRequest("POST", "/write?applicationSecret=s3cret", nil)
		}, http.StatusOK},
		{"body", true, func() *http.Request {
			return httptest.NewRequest("POST", "/read", strings.NewReader(`{"applicationSecret":"s3cret"}`))
		}, http.StatusOK},
		{"body ignored for writes", false, func() *http.Request {
			return httptest.NewRequest("POST", "/write", strings.NewReader(`{"applicationSecret":"s3cret"}`))
		}, http.StatusUnauthorized},
		{"missing", false, func() *http.Request {
			return httptest.NewRequest("POST", "/write", nil)
		}, http.StatusUnauthorized},
		{"unknown", false, func() *http.Request {
			r := httptest.NewRequest("POST", "/write", nil)
			r.Header.Set(SecretHeader, "nope")
			return r
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotApp = nil
			rr := httptest.NewRecorder()
			ApplicationSecret(apps, tc.fromBody)(next).ServeHTTP(rr, tc.build())
			if rr.Code != tc.want {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.want)
			}
			if tc.want == http.StatusOK && (gotApp == nil || gotApp.Name != "web") {
				t.Errorf("application not on context: %+v", gotApp)
			}
		})
	}

	// The body stays readable after the secret was peeked from it.
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/read", strings.NewReader(`{"applicationSecret":"s3cret","x":1}`))
	ApplicationSecret(apps, true)(next).ServeHTTP(rr, req)
	if gotBody != `{"applicationSecret":"s3cret","x":1}` {
		t.Errorf("body not restored: %q", gotBody)
	}
}

func TestApplicationSecret_BodyTooLarge(t *testing.T) {
	apps := fakeApps{"s3cret": {ID: 1, Name: "web"}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	})

	// A chunked body has no Content-Length, so only the reader sees the cap.
	rr := httptest.NewRecorder()
	body := `{"applicationSecret":"s3cret","type":"` + strings.Repeat("x", 64) + `"}`
	req := httptest.NewRequest("POST", "/read", strings.NewReader(body))
	req.Body = http.MaxBytesReader(rr, req.Body, 16)
	ApplicationSecret(apps, true)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413 (%s)", rr.Code, rr.Body.String())
	}
}
