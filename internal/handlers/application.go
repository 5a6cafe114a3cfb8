package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ==========================
// ApplicationHandler
// ==========================
type ApplicationHandler struct {
	Repo           *repo.ApplicationRepo
	UserRepo       *repo.UserRepo
	DictionaryRepo *repo.DictionaryRepo
	AuditRepo      *repo.AuditRepo
}

// ==========================
// Create Application
// ==========================
// The secret is generated here and returned once in the response body.
func (h *ApplicationHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		ApplicationName  string `json:"applicationName" validate:"required,max=128"`
		OrganisationName string `json:"organisationName" validate:"omitempty,max=128"`
		DictionaryName   string `json:"dictionaryName" validate:"omitempty,max=128"`
		UserName         string `json:"userName" validate:"omitempty,max=64"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	input.ApplicationName = strings.TrimSpace(input.ApplicationName)
	if !validateStruct(w, input) {
		return
	}

	owner := caller
	if input.UserName != "" && input.UserName != caller.Username {
		if caller.Role == models.RoleUser {
			JSONError(w, "forbidden", http.StatusForbidden)
			return
		}
		u, err := h.UserRepo.GetByUsername(r.Context(), input.UserName)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				JSONError(w, "user not found", http.StatusNotFound)
				return
			}
			internalError(w, r, "create application: load user", err)
			return
		}
		owner = u
	}

	if input.DictionaryName != "" {
		if _, err := h.DictionaryRepo.GetByName(r.Context(), input.DictionaryName); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				JSONError(w, "dictionary not found", http.StatusNotFound)
				return
			}
			internalError(w, r, "create application: load dictionary", err)
			return
		}
	}

	organisation := input.OrganisationName
	if organisation == "" {
		organisation = owner.Organisation
	}

	app, err := h.Repo.Create(r.Context(), models.Application{
		Name:           input.ApplicationName,
		Secret:         uuid.NewString(),
		Organisation:   organisation,
		DictionaryName: input.DictionaryName,
		UserID:         owner.ID,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			JSONError(w, "application already exists", http.StatusConflict)
			return
		}
		internalError(w, r, "create application", err)
		return
	}

	audit(r, h.AuditRepo, "create", "application", app.Name, "owner="+owner.Username)
	writeJSON(w, http.StatusCreated, app)
}

// ==========================
// List Applications
// ==========================
func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := 0
	if caller.Role == models.RoleUser {
		ownerID = caller.ID
	}
	apps, err := h.Repo.List(r.Context(), ownerID)
	if err != nil {
		internalError(w, r, "list applications", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

// ==========================
// Delete Application
// ==========================
func (h *ApplicationHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	name := chi.URLParam(r, "name")

	app, err := h.Repo.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "application not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "delete application: load", err)
		return
	}
	if caller.Role == models.RoleUser && app.UserID != caller.ID {
		JSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.Repo.Delete(r.Context(), name); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "application not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "delete application", err)
		return
	}

	audit(r, h.AuditRepo, "delete", "application", name, "")
	w.WriteHeader(http.StatusNoContent)
}
