package domain

import (
	"context"
	"errors"
)

// Sentinel conditions collaborators translate their backend-specific
// failures into, so the sagas can absorb the idempotent cases.
var (
	// ErrRecordNotFound is returned by StoreRepository lookups that match
	// no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateName is returned by StoreRepository.Insert when the
	// unique constraint on the store name is violated.
	ErrDuplicateName = errors.New("store name already exists")
	// ErrNamespaceExists is returned by ClusterGateway.CreateNamespace on
	// a conflict; provisioning treats it as success.
	ErrNamespaceExists = errors.New("namespace already exists")
	// ErrNamespaceNotFound is returned by ClusterGateway.DeleteNamespace
	// when the namespace is already gone; deprovisioning treats it as
	// already satisfied.
	ErrNamespaceNotFound = errors.New("namespace not found")
)

// StoreRepository is the durable table of store records, keyed by unique
// store name.
type StoreRepository interface {
	Insert(ctx context.Context, s *Store) error
	UpdateStatus(ctx context.Context, name string, status Status) error
	FindByNameOrNamespace(ctx context.Context, key string) (*Store, error)
	DeleteByID(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]Store, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	DeleteAll(ctx context.Context) error
}

// AuditLog is the append-only record of lifecycle transition attempts.
type AuditLog interface {
	Append(ctx context.Context, e *AuditEvent) error
	List(ctx context.Context, storeName string, limit int) ([]AuditEvent, error)
	CountByAction(ctx context.Context) (map[Action]int, error)
	DeleteAll(ctx context.Context) error
}

// Role classifies a pod within a store's release.
type Role string

const (
	RoleWeb      Role = "web"
	RoleDatabase Role = "database"
	RoleUnknown  Role = ""
)

// RoleLabelKey is the pod label the charts attach at install time so the
// reconciler can classify pods without guessing from names.
const RoleLabelKey = "shopkube.io/role"

// ContainerState is the readiness of one container inside a pod.
type ContainerState struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Pod is the reconciler's view of one pod in a store's namespace.
type Pod struct {
	Name       string           `json:"name"`
	Phase      string           `json:"phase"`
	Role       Role             `json:"-"`
	Containers []ContainerState `json:"-"`
}

// Ready reports whether the pod is Running with every container ready.
func (p Pod) Ready() bool {
	if p.Phase != "Running" || len(p.Containers) == 0 {
		return false
	}
	for _, c := range p.Containers {
		if !c.Ready {
			return false
		}
	}
	return true
}

// ClusterGateway exposes the namespace and pod operations the sagas and the
// reconciler need from the orchestration control plane.
type ClusterGateway interface {
	CreateNamespace(ctx context.Context, name string) error
	DeleteNamespace(ctx context.Context, name string) error
	ListPods(ctx context.Context, namespace string) ([]Pod, error)
}

// RunCommand selects the deployment tool subcommand.
type RunCommand string

const (
	CommandInstall   RunCommand = "install"
	CommandUninstall RunCommand = "uninstall"
)

// RunRequest fully parameterizes one deployment tool invocation. Engine
// selects the chart; the runner resolves the chart and values file layout.
type RunRequest struct {
	Command        RunCommand
	Release        string
	Namespace      string
	Engine         Engine
	ValueOverrides map[string]string
}

// RunResult is the structured outcome of a finished invocation. A non-zero
// exit code is a failure; stderr alongside a zero exit is a warning only.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// DeploymentRunner executes the packaged-application deployment tool as an
// external process, blocking until it exits or the configured timeout fires.
type DeploymentRunner interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}
