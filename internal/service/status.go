package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

// PodObservation is one pod as seen during reconciliation.
type PodObservation struct {
	Name  string `json:"name"`
	Phase string `json:"phase"`
	Ready bool   `json:"ready"`
}

// StatusDetails breaks the derived status into its two readiness inputs.
type StatusDetails struct {
	WorkloadReady   bool `json:"workload_ready"`
	DependencyReady bool `json:"dependency_ready"`
}

// StatusResult is the outcome of one reconciliation.
type StatusResult struct {
	Status    domain.Status    `json:"status"`
	Namespace string           `json:"namespace"`
	Pods      []PodObservation `json:"pods_found"`
	Details   StatusDetails    `json:"details"`
}

// StatusService is the pull-based reconciler: it derives a store's lifecycle
// status from live pod state and persists it when it changed. It never sets
// Failed, and it never downgrades the stored status on a transient read
// failure.
type StatusService struct {
	repo    domain.StoreRepository
	gateway domain.ClusterGateway
	logger  *zap.Logger
}

func NewStatusService(repo domain.StoreRepository, gateway domain.ClusterGateway, logger *zap.Logger) *StatusService {
	return &StatusService{repo: repo, gateway: gateway, logger: logger}
}

// Reconcile resolves the store by name or namespace, inspects its pods and
// derives the lifecycle status: Provisioning while no pods exist, Ready when
// both the workload and its backing data store have a ready pod, Installing
// otherwise.
func (s *StatusService) Reconcile(ctx context.Context, key string) (*StatusResult, error) {
	rec, err := s.repo.FindByNameOrNamespace(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Key: key}
		}
		return nil, &domain.PersistenceError{Op: "find store", Err: err}
	}

	pods, err := s.gateway.ListPods(ctx, rec.Namespace)
	if err != nil {
		// Leave the stored status untouched: a read failure says nothing
		// about the workload.
		return nil, &domain.InfrastructureError{Op: "list pods", Err: err}
	}

	if len(pods) == 0 {
		s.persistIfChanged(ctx, rec, domain.StatusProvisioning)
		return &StatusResult{
			Status:    domain.StatusProvisioning,
			Namespace: rec.Namespace,
			Pods:      []PodObservation{},
		}, nil
	}

	var workloadReady, dependencyReady bool
	observations := make([]PodObservation, 0, len(pods))
	for _, pod := range pods {
		ready := pod.Ready()
		observations = append(observations, PodObservation{
			Name:  pod.Name,
			Phase: pod.Phase,
			Ready: ready,
		})
		if !ready {
			// A crash-looping pod is ignored as long as another pod of the
			// same role is healthy.
			continue
		}
		switch classify(pod, rec.Engine) {
		case domain.RoleWeb:
			workloadReady = true
		case domain.RoleDatabase:
			dependencyReady = true
		}
	}

	derived := domain.StatusInstalling
	if workloadReady && dependencyReady {
		derived = domain.StatusReady
	}

	s.persistIfChanged(ctx, rec, derived)

	return &StatusResult{
		Status:    derived,
		Namespace: rec.Namespace,
		Pods:      observations,
		Details: StatusDetails{
			WorkloadReady:   workloadReady,
			DependencyReady: dependencyReady,
		},
	}, nil
}

// persistIfChanged writes the derived status only when it differs from the
// stored one, so repeated polling does not generate redundant writes. A
// failed write is logged, not surfaced: the derived status is still correct.
func (s *StatusService) persistIfChanged(ctx context.Context, rec *domain.Store, derived domain.Status) {
	if rec.Status == derived {
		return
	}
	if err := s.repo.UpdateStatus(ctx, rec.Name, derived); err != nil {
		s.logger.Warn("status update failed",
			zap.String("store", rec.Name),
			zap.String("status", string(derived)),
			zap.Error(err))
		return
	}
	s.logger.Info("store status changed",
		zap.String("store", rec.Name),
		zap.String("from", string(rec.Status)),
		zap.String("to", string(derived)))
}

// classify assigns a pod to the workload or dependency role. The role label
// attached at install time wins; name substrings remain as a fallback for
// releases installed before the charts carried the label.
func classify(pod domain.Pod, engine domain.Engine) domain.Role {
	switch pod.Role {
	case domain.RoleWeb, domain.RoleDatabase:
		return pod.Role
	}

	name := strings.ToLower(pod.Name)
	for _, p := range workloadPatterns(engine) {
		if strings.Contains(name, p) {
			return domain.RoleWeb
		}
	}
	for _, p := range dependencyPatterns(engine) {
		if strings.Contains(name, p) {
			return domain.RoleDatabase
		}
	}
	return domain.RoleUnknown
}

func workloadPatterns(engine domain.Engine) []string {
	switch engine {
	case domain.EngineMedusa:
		return []string{"medusa"}
	default:
		return []string{"wordpress", "woocommerce", "store-chart"}
	}
}

func dependencyPatterns(engine domain.Engine) []string {
	switch engine {
	case domain.EngineMedusa:
		return []string{"postgres"}
	default:
		return []string{"mysql", "mariadb"}
	}
}
