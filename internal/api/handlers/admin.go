package handlers

import (
	"net/http"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

type AdminHandler struct {
	repo         domain.StoreRepository
	audit        domain.AuditLog
	runtimeStats func() map[string]any
	logger       *zap.Logger
}

func NewAdminHandler(repo domain.StoreRepository, audit domain.AuditLog, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{repo: repo, audit: audit, logger: logger}
}

// SetRuntimeStats wires the process-level stats provider into the metrics
// response.
func (h *AdminHandler) SetRuntimeStats(fn func() map[string]any) {
	h.runtimeStats = fn
}

// Reset clears the store table (restarting its identity sequence) and the
// audit log. Administrative escape hatch; cluster state is untouched.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteAll(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if err := h.audit.DeleteAll(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.logger.Info("database reset, identity sequences restarted")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "database reset successfully",
	})
}

// Metrics reports store counts by status plus lifecycle activity totals from
// the audit log.
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	statusCounts, err := h.repo.CountByStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch metrics")
		return
	}
	actionCounts, err := h.audit.CountByAction(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch metrics")
		return
	}

	total := 0
	for _, n := range statusCounts {
		total += n
	}

	metrics := map[string]any{
		"stores": map[string]int{
			"total":        total,
			"ready":        statusCounts[domain.StatusReady],
			"failed":       statusCounts[domain.StatusFailed],
			"provisioning": statusCounts[domain.StatusProvisioning] + statusCounts[domain.StatusInstalling],
		},
		"activity": map[string]int{
			"total_created": actionCounts[domain.ActionCreateSuccess],
			"total_deleted": actionCounts[domain.ActionDeleteSuccess],
			"total_failed":  actionCounts[domain.ActionCreateFailed],
		},
	}
	if h.runtimeStats != nil {
		metrics["runtime"] = h.runtimeStats()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"metrics": metrics,
	})
}
