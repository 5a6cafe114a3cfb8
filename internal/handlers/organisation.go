package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/repo"
	"github.com/go-chi/chi/v5"
)

// OrganisationHandler manages organisation names. Organisations have no table of
// their own; they live on users and applications.
type OrganisationHandler struct {
	UserRepo        *repo.UserRepo
	ApplicationRepo *repo.ApplicationRepo
	AuditRepo       *repo.AuditRepo
}

// CreateOrganisation attaches the organisation to userName, or to the caller.
func (h *OrganisationHandler) CreateOrganisation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OrganisationName string `json:"organisationName" validate:"required,max=128"`
		UserName         string `json:"userName" validate:"omitempty,max=64"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	input.OrganisationName = strings.TrimSpace(input.OrganisationName)
	if !validateStruct(w, input) {
		return
	}

	username := input.UserName
	if username == "" {
		caller, ok := middleware.GetUser(r.Context())
		if !ok {
			JSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		username = caller.Username
	}

	if _, err := h.UserRepo.SetOrganisation(r.Context(), username, input.OrganisationName); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "create organisation", err)
		return
	}

	audit(r, h.AuditRepo, "create", "organisation", input.OrganisationName, "user="+username)
	writeJSON(w, http.StatusCreated, map[string]string{"organisationName": input.OrganisationName})
}

// ListOrganisations returns every organisation name in use.
func (h *OrganisationHandler) ListOrganisations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.UserRepo.ListOrganisations(r.Context())
	if err != nil {
		internalError(w, r, "list organisations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"organisations": orgs})
}

// DeleteOrganisation detaches every user and application from the organisation.
func (h *OrganisationHandler) DeleteOrganisation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	users, err := h.UserRepo.ClearOrganisation(r.Context(), name)
	if err != nil {
		internalError(w, r, "delete organisation: users", err)
		return
	}
	apps, err := h.ApplicationRepo.ClearOrganisation(r.Context(), name)
	if err != nil {
		internalError(w, r, "delete organisation: applications", err)
		return
	}
	if users+apps == 0 {
		JSONError(w, "organisation not found", http.StatusNotFound)
		return
	}

	audit(r, h.AuditRepo, "delete", "organisation", name, "")
	w.WriteHeader(http.StatusNoContent)
}
