package logs

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
	"time"

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

func TestWriteLogs_UsesApplicationSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/write" || r.URL.Query().Get("name") != "v1" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		if got := r.Header.Get("X-Application-Secret"); got != "s3cret" {
			t.Errorf("secret header: got %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("write must not send a session token")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"login":"x","logout":"y"}` {
			t.Errorf("body: got %s", body)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]models.LogEntry{{ID: 1, Type: "login"}, {ID: 2, Type: "logout"}})
	}))
	defer srv.Close()
	t.Setenv("APPLOG_API_URL", srv.URL)

	cmd := writeLogsCmd()
	_ = cmd.Flags().Set("secret", "s3cret")
	_ = cmd.Flags().Set("dict", "v1")
	_ = cmd.Flags().Set("data", `{"login":"x","logout":"y"}`)
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	if !strings.Contains(out, "2 log entries written") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestWriteLogs_RejectsBadInput(t *testing.T) {
	t.Setenv("APPLOG_APP_SECRET", "")

	cmd := writeLogsCmd()
	_ = cmd.Flags().Set("data", `{"login":"x"}`)
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Error("expected error without a secret")
	}

	cmd = writeLogsCmd()
	_ = cmd.Flags().Set("secret", "s3cret")
	_ = cmd.Flags().Set("data", `{not json`)
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestReadLogs_GroupedTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("logs") != "all" || q.Get("name") != "v1" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"login":["alice","bob"],"logout":["carol"]}`))
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	_ = os.WriteFile(tokenFile, []byte("tok"), 0o600)
	t.Setenv("APPLOG_TOKEN_FILE", tokenFile)
	t.Setenv("APPLOG_API_URL", srv.URL)

	cmd := readLogsCmd()
	_ = cmd.Flags().Set("dict", "v1")
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	for _, want := range []string{"login", "alice", "bob", "logout", "carol"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestReadLogs_RawTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sort") != "login" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]models.LogEntry{
			{ID: 7, DictName: "v1", Type: "login", Data: json.RawMessage(`{"user":"dana"}`), ApplicationName: "shop", Timestamp: time.Now()},
		})
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	_ = os.WriteFile(tokenFile, []byte("tok"), 0o600)
	t.Setenv("APPLOG_TOKEN_FILE", tokenFile)
	t.Setenv("APPLOG_API_URL", srv.URL)

	cmd := readLogsCmd()
	_ = cmd.Flags().Set("type", "login")
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	if !strings.Contains(out, "shop") || !strings.Contains(out, `{"user":"dana"}`) {
		t.Errorf("unexpected output: %s", out)
	}
}
