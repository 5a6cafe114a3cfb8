package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/models"
	"github.com/go-chi/chi/v5"
)

var (
	userCols        = []string{"user_id", "username", "password_hash", "role", "organisation", "application", "created_on"}
	dictionaryCols  = []string{"dictionary_id", "name", "data", "created_by", "created_on", "updated_on"}
	applicationCols = []string{"application_id", "name", "secret", "organisation", "dictionary_name", "user_id", "created_on"}
	logCols         = []string{"log_id", "dict_name", "type", "data", "path", "application_name", "organisation_name", "timestamp"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

// asUser attaches user to the request the way Authenticate would.
func asUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), user))
}

// asApplication attaches app to the request the way ApplicationSecret would.
func asApplication(r *http.Request, app *models.Application) *http.Request {
	return r.WithContext(middleware.WithApplication(r.Context(), app))
}

func dictionaryRow(id int, name, data string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(dictionaryCols).AddRow(id, name, []byte(data), 1, now, now)
}
