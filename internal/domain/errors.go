package domain

import "fmt"

// ValidationError reports a malformed request rejected before any cluster or
// store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InfrastructureError reports a cluster API call that failed for a reason
// other than the idempotent conditions the sagas absorb (conflict on create,
// not-found on delete).
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("cluster %s failed: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// DeploymentError reports a non-zero exit from the external deployment tool.
type DeploymentError struct {
	Release string
	Command string
	Detail  string
	Err     error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("helm %s failed for release %q: %s", e.Command, e.Release, e.Detail)
}

func (e *DeploymentError) Unwrap() error { return e.Err }

// PersistenceError reports a store read/write failure. Untracked is set when
// cluster resources were already created, so the caller knows the workload
// exists but is not recorded.
type PersistenceError struct {
	Op        string
	Untracked bool
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.Untracked {
		return fmt.Sprintf("persistence %s failed (store may be running in cluster but untracked): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports that no store record matched the given key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store %q not found", e.Key)
}
