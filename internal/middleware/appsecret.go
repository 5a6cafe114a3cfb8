package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
)

// SecretHeader carries an application secret.
const SecretHeader = "X-Application-Secret"

const applicationKey key = "application"

// ApplicationLookup resolves an application secret. *repo.ApplicationRepo satisfies it.
type ApplicationLookup interface {
	GetBySecret(ctx context.Context, secret string) (*models.Application, error)
}

// ApplicationSecret authenticates log producers by secret instead of a user session.
// The secret comes from the X-Application-Secret header or the applicationSecret query
// parameter; with fromBody it may also be an "applicationSecret" field of a JSON body.
func ApplicationSecret(apps ApplicationLookup, fromBody bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := r.Header.Get(SecretHeader)
			if secret == "" {
				secret = r.URL.Query().Get("applicationSecret")
			}
			if secret == "" && fromBody && r.Body != nil {
				var err error
				if secret, err = secretFromBody(r); err != nil {
					var tooLarge *http.MaxBytesError
					if errors.As(err, &tooLarge) {
						writeJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
						return
					}
					writeJSONError(w, "invalid request body", http.StatusBadRequest)
					return
				}
			}
			if secret == "" {
				writeJSONError(w, "missing application secret", http.StatusUnauthorized)
				return
			}

			app, err := apps.GetBySecret(r.Context(), secret)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					writeJSONError(w, "invalid application secret", http.StatusUnauthorized)
					return
				}
				slog.Error("auth: load application", "error", err)
				writeJSONError(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), applicationKey, app)))
		})
	}
}

// secretFromBody reads applicationSecret from a JSON body and restores the body.
// Only read errors are returned; a body that is not JSON just carries no secret.
func secretFromBody(r *http.Request) (string, error) {
	b, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	var in struct {
		ApplicationSecret string `json:"applicationSecret"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return "", nil
	}
	return in.ApplicationSecret, nil
}

// GetApplication returns the application authenticated by ApplicationSecret.
func GetApplication(ctx context.Context) (*models.Application, bool) {
	a, ok := ctx.Value(applicationKey).(*models.Application)
	return a, ok && a != nil
}

// WithApplication stores app on ctx the way ApplicationSecret does.
func WithApplication(ctx context.Context, app *models.Application) context.Context {
	return context.WithValue(ctx, applicationKey, app)
}
