package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/applog/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var (
	userCols = []string{"user_id", "username", "password_hash", "role", "organisation", "application", "created_on"}
	dictCols = []string{"dictionary_id", "name", "data", "created_by", "created_on", "updated_on"}
	appCols  = []string{"application_id", "name", "secret", "organisation", "dictionary_name", "user_id", "created_on"}
	logCols  = []string{"log_id", "dict_name", "type", "data", "path", "application_name", "organisation_name", "timestamp"}
)

func newTestServer(t *testing.T) (*httptest.Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{JWTSecret: "test-secret-for-integration", JWTExpireHours: 1}
	srv := httptest.NewServer(newRouter(db, cfg))
	t.Cleanup(srv.Close)
	return srv, mock
}

func send(t *testing.T, srv *httptest.Server, method, path, body string, header map[string]string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// TestAPI_RegisterLoginWriteRead drives the full router against a sqlmock-backed DB:
// register, log in, define a dictionary, write with an application secret, read back.
func TestAPI_RegisterLoginWriteRead(t *testing.T) {
	srv, mock := newTestServer(t)
	now := time.Now()
	hash, _ := bcrypt.GenerateFromPassword([]byte("integration-pw"), bcrypt.MinCost)
	owner := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).AddRow(1, "integration", string(hash), "owner", "acme", "", now)
	}
	v1 := func() *sqlmock.Rows {
		return sqlmock.NewRows(dictCols).AddRow(5, "v1", []byte(`{"login":[],"logout":[]}`), 1, now, now)
	}

	// 1) Register: the first user becomes owner.
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("integration", sqlmock.AnyArg(), "user").
		WillReturnRows(owner())
	// 2) Login
	mock.ExpectQuery(`SELECT user_id, username .* WHERE username = \$1`).
		WithArgs("integration").
		WillReturnRows(owner())
	// 3) Create dictionary: Authenticate reloads the user, then insert and audit.
	mock.ExpectQuery(`SELECT user_id, username .* WHERE user_id = \$1`).
		WithArgs(1).
		WillReturnRows(owner())
	mock.ExpectQuery(`INSERT INTO dictionaries`).
		WithArgs("v1", `{"login":[],"logout":[]}`, 1).
		WillReturnRows(v1())
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// 4) Write: secret lookup, dictionary, one insert per key.
	mock.ExpectQuery(`FROM applications WHERE secret = \$1`).
		WithArgs("app-secret").
		WillReturnRows(sqlmock.NewRows(appCols).AddRow(9, "shop", "app-secret", "acme", "v1", 1, now))
	mock.ExpectQuery(`SELECT dictionary_id, name, data`).
		WithArgs("v1").
		WillReturnRows(v1())
	mock.ExpectQuery(`INSERT INTO logs`).
		WithArgs("v1", "login", `"x"`, nil, "shop", "acme").
		WillReturnRows(sqlmock.NewRows(logCols).AddRow(1, "v1", "login", []byte(`"x"`), "", "shop", "acme", now))
	// 5) Read grouped by type.
	mock.ExpectQuery(`SELECT user_id, username .* WHERE user_id = \$1`).
		WithArgs(1).
		WillReturnRows(owner())
	mock.ExpectQuery(`SELECT dictionary_id, name, data`).
		WithArgs("v1").
		WillReturnRows(v1())
	mock.ExpectQuery(`FROM logs WHERE dict_name = \$1 AND type = ANY\(\$2\) ORDER BY log_id LIMIT \$3`).
		WithArgs("v1", sqlmock.AnyArg(), 100).
		WillReturnRows(sqlmock.NewRows(logCols).AddRow(1, "v1", "login", []byte(`"x"`), "", "shop", "acme", now))

	resp := send(t, srv, "POST", "/register", `{"username":"integration","password":"integration-pw"}`, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: got %d, want 201", resp.StatusCode)
	}

	resp = send(t, srv, "POST", "/login", `{"username":"integration","password":"integration-pw"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", resp.StatusCode)
	}
	var loginOut struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginOut); err != nil || loginOut.Token == "" {
		t.Fatalf("login response: %v", err)
	}
	bearer := map[string]string{"Authorization": "Bearer " + loginOut.Token}

	resp = send(t, srv, "POST", "/create-dictionary", `{"name":"v1","data":{"login":[],"logout":[]}}`, bearer)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create-dictionary status: got %d, want 201", resp.StatusCode)
	}

	resp = send(t, srv, "POST", "/write?name=v1", `{"login":"x"}`, map[string]string{"X-Application-Secret": "app-secret"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("write status: got %d, want 201", resp.StatusCode)
	}

	resp = send(t, srv, "GET", "/read?logs=all&name=v1", "", bearer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read status: got %d, want 200", resp.StatusCode)
	}
	var grouped map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&grouped); err != nil {
		t.Fatalf("decode read: %v", err)
	}
	if len(grouped["login"]) != 1 || grouped["login"][0] != "x" {
		t.Errorf("unexpected read: %v", grouped)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAPI_ProtectedRoutes(t *testing.T) {
	srv, mock := newTestServer(t)

	resp := send(t, srv, "GET", "/list-dictionaries", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("API client without token: got %d, want 401", resp.StatusCode)
	}

	resp = send(t, srv, "GET", "/list-dictionaries", "", map[string]string{"Accept": "text/html"})
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Errorf("browser without token: got %d Location=%q, want 302 /login", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp = send(t, srv, "POST", "/write?name=v1", `{"login":"x"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("write without secret: got %d, want 401", resp.StatusCode)
	}

	mock.ExpectQuery(`FROM applications WHERE secret = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	resp = send(t, srv, "POST", "/read", `{"applicationSecret":"nope"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("read with bad secret: got %d, want 401", resp.StatusCode)
	}

	big := bytes.Repeat([]byte("a"), 2<<20)
	resp = send(t, srv, "POST", "/login", `{"username":"`+string(big)+`"}`, nil)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body: got %d, want 413", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAPI_UserCannotManageDictionaries(t *testing.T) {
	srv, mock := newTestServer(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("plain-user-pw"), bcrypt.MinCost)
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).AddRow(2, "plain", string(hash), "user", "", "", time.Now())
	}
	mock.ExpectQuery(`WHERE username = \$1`).WithArgs("plain").WillReturnRows(row())
	mock.ExpectQuery(`WHERE user_id = \$1`).WithArgs(2).WillReturnRows(row())

	resp := send(t, srv, "POST", "/login", `{"username":"plain","password":"plain-user-pw"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", resp.StatusCode)
	}
	// The cookie set by login authenticates the next request.
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("login did not set the jwt cookie")
	}

	resp = send(t, srv, "POST", "/create-dictionary", `{"name":"v1","actions":["a"]}`, map[string]string{"Cookie": "jwt=" + cookie.Value})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("create-dictionary as user: got %d, want 403", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := send(t, srv, "GET", "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_Ready checks that /ready pings the DB and returns 200 when DB is reachable.
func TestAPI_Ready(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := send(t, srv, "GET", "/ready", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready status: got %d, want 200", resp.StatusCode)
	}
}

func TestAPI_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)

	send(t, srv, "GET", "/health", "", nil)
	resp := send(t, srv, "GET", "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status: got %d, want 200", resp.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "http_requests_total") {
		t.Error("metrics output missing http_requests_total")
	}
}
