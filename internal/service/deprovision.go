package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

// DeprovisionResult reports a completed deletion. Warnings carry cluster-side
// failures that did not stop the saga; orphaned resources they describe are
// cleaned up out of band.
type DeprovisionResult struct {
	Name      string   `json:"store_name"`
	Namespace string   `json:"namespace"`
	Warnings  []string `json:"warnings,omitempty"`
}

// DeprovisionService drives the deletion saga. The uninstall and namespace
// steps are best-effort; only the record removal decides overall success. A
// store that keeps an orphaned cluster resource but leaves the tracked set is
// preferable to one stuck tracked forever because a cluster call failed.
type DeprovisionService struct {
	repo       domain.StoreRepository
	audit      domain.AuditLog
	gateway    domain.ClusterGateway
	runner     domain.DeploymentRunner
	locks      *KeyedLocks
	settleWait time.Duration
	logger     *zap.Logger
}

func NewDeprovisionService(
	repo domain.StoreRepository,
	audit domain.AuditLog,
	gateway domain.ClusterGateway,
	runner domain.DeploymentRunner,
	locks *KeyedLocks,
	settleWait time.Duration,
	logger *zap.Logger,
) *DeprovisionService {
	return &DeprovisionService{
		repo:       repo,
		audit:      audit,
		gateway:    gateway,
		runner:     runner,
		locks:      locks,
		settleWait: settleWait,
		logger:     logger,
	}
}

// Deprovision removes the store matching key (name or namespace). It returns
// a NotFoundError without touching cluster or store state when no record
// matches.
func (s *DeprovisionService) Deprovision(ctx context.Context, key, callerAddr string) (*DeprovisionResult, error) {
	rec, err := s.repo.FindByNameOrNamespace(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Key: key}
		}
		return nil, &domain.PersistenceError{Op: "find store", Err: err}
	}

	unlock := s.locks.Lock(rec.Name)
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	s.logger.Info("deprovisioning store",
		zap.String("store", rec.Name),
		zap.String("namespace", rec.Namespace))

	emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
		Action:     domain.ActionDeleteStarted,
		StoreName:  rec.Name,
		Namespace:  rec.Namespace,
		Engine:     rec.Engine,
		Status:     rec.Status,
		Message:    "delete initiated",
		CallerAddr: callerAddr,
	})

	steps := []sagaStep{
		{name: "helm uninstall", run: func(ctx context.Context) stepResult {
			res, runErr := s.runner.Run(ctx, domain.RunRequest{
				Command:   domain.CommandUninstall,
				Release:   rec.Name,
				Namespace: rec.Namespace,
			})
			if runErr != nil {
				return warn("helm uninstall failed: %v", runErr)
			}
			if res.ExitCode != 0 {
				detail := strings.TrimSpace(res.Stderr)
				if detail == "" {
					detail = res.Stdout
				}
				return warn("helm uninstall failed: %s", detail)
			}
			return ok()
		}},
		{name: "namespace delete", run: func(ctx context.Context) stepResult {
			err := s.gateway.DeleteNamespace(ctx, rec.Namespace)
			if errors.Is(err, domain.ErrNamespaceNotFound) {
				s.logger.Info("namespace already gone", zap.String("namespace", rec.Namespace))
				return ok()
			}
			if err != nil {
				return warn("namespace deletion failed: %v", err)
			}
			// Deletion only begins asynchronously; give the control plane a
			// moment to start reclaiming resources. Advisory, not a guarantee.
			time.Sleep(s.settleWait)
			return ok()
		}},
		{name: "record removal", run: func(ctx context.Context) stepResult {
			if err := s.repo.DeleteByID(ctx, rec.ID); err != nil {
				return fatal(&domain.PersistenceError{Op: "delete store", Err: err})
			}
			return ok()
		}},
	}

	warnings, err := runSaga(ctx, s.logger, "deprovision", steps)
	if err != nil {
		msg := "delete failed: " + err.Error()
		if len(warnings) > 0 {
			msg += "; warnings: " + strings.Join(warnings, ", ")
		}
		emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
			Action:     domain.ActionDeleteFailed,
			StoreName:  rec.Name,
			Namespace:  rec.Namespace,
			Engine:     rec.Engine,
			Status:     domain.StatusDeleted,
			Message:    msg,
			CallerAddr: callerAddr,
		})
		return nil, err
	}

	msg := "store deleted successfully"
	if len(warnings) > 0 {
		msg += " with warnings: " + strings.Join(warnings, ", ")
	}
	emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
		Action:     domain.ActionDeleteSuccess,
		StoreName:  rec.Name,
		Namespace:  rec.Namespace,
		Engine:     rec.Engine,
		Status:     domain.StatusDeleted,
		Message:    msg,
		CallerAddr: callerAddr,
	})

	s.logger.Info("store deprovisioned",
		zap.String("store", rec.Name),
		zap.Int("warnings", len(warnings)))

	return &DeprovisionResult{
		Name:      rec.Name,
		Namespace: rec.Namespace,
		Warnings:  warnings,
	}, nil
}
