package handlers

import (
	"errors"
	"net/http"

	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Repo      *repo.UserRepo
	AuditRepo *repo.AuditRepo
}

// ==========================
// Me
// ==========================
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ==========================
// User Dashboard
// ==========================
func (h *UserHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50, 500)

	users, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		internalError(w, r, "user dashboard: list users", err)
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		internalError(w, r, "user dashboard: count users", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// ==========================
// Update Role
// ==========================
// Only an owner may grant or revoke owner. Nobody changes their own role.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		UserID int    `json:"user_id" validate:"required,gt=0"`
		Role   string `json:"role" validate:"required,role"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if !validateStruct(w, input) {
		return
	}
	if input.UserID == caller.ID {
		JSONError(w, "cannot change your own role", http.StatusBadRequest)
		return
	}

	target, err := h.Repo.GetByID(r.Context(), input.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "update role: load user", err)
		return
	}
	if (input.Role == models.RoleOwner || target.Role == models.RoleOwner) && caller.Role != models.RoleOwner {
		JSONError(w, "only an owner can change owner roles", http.StatusForbidden)
		return
	}

	updated, err := h.Repo.UpdateRole(r.Context(), target.ID, input.Role)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "update role", err)
		return
	}

	audit(r, h.AuditRepo, "update", "user", updated.Username, target.Role+" -> "+updated.Role)
	writeJSON(w, http.StatusOK, updated)
}
