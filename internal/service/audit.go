package service

import (
	"context"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

// emitAudit appends a lifecycle event, logging instead of failing the saga
// when the sink itself is unavailable.
func emitAudit(ctx context.Context, log domain.AuditLog, logger *zap.Logger, e *domain.AuditEvent) {
	if err := log.Append(ctx, e); err != nil {
		logger.Warn("audit append failed",
			zap.String("action", string(e.Action)),
			zap.String("store", e.StoreName),
			zap.Error(err))
	}
}
