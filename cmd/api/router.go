package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/crucial707/applog/internal/config"
	"github.com/crucial707/applog/internal/handlers"
	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires repositories, handlers and middleware onto a chi router.
func newRouter(db *sql.DB, cfg config.Config) http.Handler {
	// ==========================
	// Repositories
	// ==========================
	userRepo := repo.NewUserRepo(db)
	dictionaryRepo := repo.NewDictionaryRepo(db)
	applicationRepo := repo.NewApplicationRepo(db)
	logRepo := repo.NewLogRepo(db)
	auditRepo := repo.NewAuditRepo(db)

	// ==========================
	// Handlers
	// ==========================
	secret := []byte(cfg.JWTSecret)
	authHandler := &handlers.AuthHandler{
		UserRepo:     userRepo,
		Secret:       secret,
		TokenTTL:     time.Duration(cfg.JWTExpireHours) * time.Hour,
		SecureCookie: cfg.CookieSecure,
	}
	userHandler := &handlers.UserHandler{Repo: userRepo, AuditRepo: auditRepo}
	dictionaryHandler := &handlers.DictionaryHandler{Repo: dictionaryRepo, AuditRepo: auditRepo}
	organisationHandler := &handlers.OrganisationHandler{UserRepo: userRepo, ApplicationRepo: applicationRepo, AuditRepo: auditRepo}
	applicationHandler := &handlers.ApplicationHandler{
		Repo:           applicationRepo,
		UserRepo:       userRepo,
		DictionaryRepo: dictionaryRepo,
		AuditRepo:      auditRepo,
	}
	logHandler := &handlers.LogHandler{Repo: logRepo, DictionaryRepo: dictionaryRepo}
	auditHandler := &handlers.AuditHandler{Repo: auditRepo}

	// ==========================
	// Router
	// ==========================
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public account routes
	limiter := middleware.AuthRateLimiter(cfg.TrustProxyHeaders)
	r.With(limiter.Middleware).Post("/register", authHandler.Register)
	r.With(limiter.Middleware).Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	// Application secret routes
	r.With(middleware.ApplicationSecret(applicationRepo, false)).Post("/write", logHandler.Write)
	r.With(middleware.ApplicationSecret(applicationRepo, true)).Post("/read", logHandler.ReadForApplication)

	// Session routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(secret, userRepo))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleUser, models.RoleAdmin, models.RoleOwner))

			r.Get("/me", userHandler.Me)
			r.Get("/read", logHandler.Read)
			r.Get("/list-dictionaries", dictionaryHandler.ListDictionaries)
			r.Get("/dictionary/{name}", dictionaryHandler.GetDictionary)
			r.Get("/list-applications", applicationHandler.ListApplications)
			r.Post("/create-application", applicationHandler.CreateApplication)
			r.Delete("/delete-application/{name}", applicationHandler.DeleteApplication)
			r.Get("/list-organisations", organisationHandler.ListOrganisations)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleOwner))

			r.Post("/create-dictionary", dictionaryHandler.CreateDictionary)
			r.Post("/update-dictionary", dictionaryHandler.UpdateDictionary)
			r.Delete("/delete-dictionary/{name}", dictionaryHandler.DeleteDictionary)
			r.Post("/create-organisation", organisationHandler.CreateOrganisation)
			r.Delete("/delete-organisation/{name}", organisationHandler.DeleteOrganisation)
			r.Get("/user-dashboard", userHandler.UserDashboard)
			r.Post("/update-role", userHandler.UpdateRole)
			r.Get("/audit", auditHandler.ListAudit)
		})
	})

	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
