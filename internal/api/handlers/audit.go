package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopkube/shopkube/internal/domain"
)

const defaultAuditLimit = 50

type AuditHandler struct {
	audit domain.AuditLog
}

func NewAuditHandler(audit domain.AuditLog) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns recent lifecycle events, newest first, optionally filtered by
// ?store= and capped by ?limit=.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultAuditLimit
	}
	storeName := r.URL.Query().Get("store")

	logs, err := h.audit.List(r.Context(), storeName, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch audit logs")
		return
	}
	if logs == nil {
		logs = []domain.AuditEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"logs":    logs,
	})
}
