package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

// ProvisionResult is the success descriptor handed back to the caller.
type ProvisionResult struct {
	Name      string        `json:"store_name"`
	Namespace string        `json:"namespace"`
	URL       string        `json:"url"`
	Status    domain.Status `json:"status"`
}

// ProvisionService drives the creation saga: namespace create, package
// install, record persistence. Each step carries its own failure policy; a
// record is written only after the install has succeeded, so the store table
// never references a workload that does not exist in the cluster.
type ProvisionService struct {
	repo          domain.StoreRepository
	audit         domain.AuditLog
	gateway       domain.ClusterGateway
	runner        domain.DeploymentRunner
	locks         *KeyedLocks
	ingressDomain string
	production    bool
	logger        *zap.Logger
}

func NewProvisionService(
	repo domain.StoreRepository,
	audit domain.AuditLog,
	gateway domain.ClusterGateway,
	runner domain.DeploymentRunner,
	locks *KeyedLocks,
	ingressDomain string,
	production bool,
	logger *zap.Logger,
) *ProvisionService {
	return &ProvisionService{
		repo:          repo,
		audit:         audit,
		gateway:       gateway,
		runner:        runner,
		locks:         locks,
		ingressDomain: ingressDomain,
		production:    production,
		logger:        logger,
	}
}

// Provision creates one store end to end. The saga runs to completion even
// if the original caller disconnects; only the subprocess timeout bounds it.
func (s *ProvisionService) Provision(ctx context.Context, name string, engine domain.Engine, callerAddr string) (*ProvisionResult, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	if !domain.ValidEngine(engine) {
		return nil, &domain.ValidationError{Field: "engine", Reason: fmt.Sprintf("unknown engine %q", engine)}
	}

	namespace := domain.DeriveNamespace(name)
	host := domain.IngressHost(name, s.ingressDomain, s.production)
	url := domain.StoreURL(name, s.ingressDomain, s.production)

	unlock := s.locks.Lock(name)
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	s.logger.Info("provisioning store",
		zap.String("store", name),
		zap.String("namespace", namespace),
		zap.String("engine", string(engine)))

	emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
		Action:     domain.ActionCreateStarted,
		StoreName:  name,
		Namespace:  namespace,
		Engine:     engine,
		Status:     domain.StatusProvisioning,
		Message:    "store creation initiated",
		CallerAddr: callerAddr,
	})

	steps := []sagaStep{
		{name: "namespace create", run: func(ctx context.Context) stepResult {
			err := s.gateway.CreateNamespace(ctx, namespace)
			if errors.Is(err, domain.ErrNamespaceExists) {
				s.logger.Info("namespace already exists", zap.String("namespace", namespace))
				return ok()
			}
			if err != nil {
				return fatal(&domain.InfrastructureError{Op: "namespace create", Err: err})
			}
			return ok()
		}},
		{name: "helm install", run: func(ctx context.Context) stepResult {
			return s.installStep(ctx, name, namespace, host, engine, callerAddr)
		}},
		{name: "persist record", run: func(ctx context.Context) stepResult {
			return s.persistStep(ctx, name, namespace, url, engine, callerAddr)
		}},
	}

	_, err := runSaga(ctx, s.logger, "provision", steps)
	if err != nil {
		// The install and persist steps audit their own failures before
		// returning; everything else (infrastructure errors, panics) is
		// recorded here so no failure path escapes without a trace.
		var deployErr *domain.DeploymentError
		var persistErr *domain.PersistenceError
		if !errors.As(err, &deployErr) && !errors.As(err, &persistErr) {
			emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
				Action:     domain.ActionCreateError,
				StoreName:  name,
				Namespace:  namespace,
				Engine:     engine,
				Status:     domain.StatusFailed,
				Message:    "unexpected error: " + err.Error(),
				CallerAddr: callerAddr,
			})
		}
		var pe *panicError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("store provisioning failed: %w", pe)
		}
		return nil, err
	}

	emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
		Action:     domain.ActionCreateSuccess,
		StoreName:  name,
		Namespace:  namespace,
		Engine:     engine,
		Status:     domain.StatusProvisioning,
		Message:    "store successfully provisioned via helm",
		CallerAddr: callerAddr,
	})

	s.logger.Info("store provisioned", zap.String("store", name), zap.String("url", url))

	return &ProvisionResult{
		Name:      name,
		Namespace: namespace,
		URL:       url,
		Status:    domain.StatusProvisioning,
	}, nil
}

// installStep runs helm install. On failure it compensates by deleting the
// namespace created above; compensation is best-effort, a failed cleanup is
// logged but never masks the install error.
func (s *ProvisionService) installStep(ctx context.Context, name, namespace, host string, engine domain.Engine, callerAddr string) stepResult {
	res, err := s.runner.Run(ctx, domain.RunRequest{
		Command:   domain.CommandInstall,
		Release:   name,
		Namespace: namespace,
		Engine:    engine,
		ValueOverrides: map[string]string{
			"ingress.host": host,
		},
	})

	var detail string
	switch {
	case err != nil:
		detail = err.Error()
	case res.ExitCode != 0:
		detail = strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", res.ExitCode)
		}
	default:
		return ok()
	}

	if cleanupErr := s.gateway.DeleteNamespace(ctx, namespace); cleanupErr != nil && !errors.Is(cleanupErr, domain.ErrNamespaceNotFound) {
		s.logger.Warn("namespace cleanup after install failure also failed",
			zap.String("namespace", namespace),
			zap.Error(cleanupErr))
	}

	emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
		Action:     domain.ActionCreateFailed,
		StoreName:  name,
		Namespace:  namespace,
		Engine:     engine,
		Status:     domain.StatusFailed,
		Message:    "helm install failed: " + detail,
		CallerAddr: callerAddr,
	})

	return fatal(&domain.DeploymentError{
		Release: name,
		Command: string(domain.CommandInstall),
		Detail:  detail,
		Err:     err,
	})
}

// persistStep writes the record with status Provisioning. On failure no
// cluster compensation is attempted: the workload is real and functioning,
// so the error flags the untracked state instead.
func (s *ProvisionService) persistStep(ctx context.Context, name, namespace, url string, engine domain.Engine, callerAddr string) stepResult {
	rec := &domain.Store{
		Name:      name,
		Engine:    engine,
		Namespace: namespace,
		Status:    domain.StatusProvisioning,
		URL:       url,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		emitAudit(ctx, s.audit, s.logger, &domain.AuditEvent{
			Action:     domain.ActionCreateDBFailed,
			StoreName:  name,
			Namespace:  namespace,
			Engine:     engine,
			Status:     domain.StatusFailed,
			Message:    "database save failed after helm install: " + err.Error(),
			CallerAddr: callerAddr,
		})
		return fatal(&domain.PersistenceError{Op: "insert store", Untracked: true, Err: err})
	}
	return ok()
}
