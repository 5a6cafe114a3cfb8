package handlers

import (
	"log/slog"
	"net/http"

	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/repo"
)

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

// ListAudit returns recent audit log entries. Query: limit (default 50, max 200), offset (default 0).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50, 200)

	entries, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		internalError(w, r, "list audit", err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// audit records a mutation by the authenticated user. A nil repo disables auditing;
// failures are logged and never fail the request.
func audit(r *http.Request, auditRepo *repo.AuditRepo, action, resourceType, resourceName, details string) {
	if auditRepo == nil {
		return
	}
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return
	}
	if err := auditRepo.Log(r.Context(), userID, action, resourceType, resourceName, details); err != nil {
		slog.WarnContext(r.Context(), "audit log failed", "action", action, "resource_type", resourceType, "error", err)
	}
}
