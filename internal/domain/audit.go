package domain

import "time"

// Action tags one lifecycle transition attempt in the audit log.
type Action string

const (
	ActionCreateStarted  Action = "CREATE_STARTED"
	ActionCreateFailed   Action = "CREATE_FAILED"
	ActionCreateDBFailed Action = "CREATE_DB_FAILED"
	ActionCreateSuccess  Action = "CREATE_SUCCESS"
	ActionCreateError    Action = "CREATE_ERROR"
	ActionDeleteStarted  Action = "DELETE_STARTED"
	ActionDeleteSuccess  Action = "DELETE_SUCCESS"
	ActionDeleteFailed   Action = "DELETE_FAILED"
)

// StatusDeleted appears only in audit events recorded by the deprovisioning
// saga; it is never persisted on a store record.
const StatusDeleted Status = "Deleted"

// AuditEvent is an immutable fact describing one lifecycle transition
// attempt. Events are append-only; the log is never rewritten except by the
// administrative reset, which clears it wholesale.
type AuditEvent struct {
	ID         int64     `json:"id"`
	Action     Action    `json:"action"`
	StoreName  string    `json:"store_name"`
	Namespace  string    `json:"namespace"`
	Engine     Engine    `json:"engine"`
	Status     Status    `json:"status"`
	Message    string    `json:"message"`
	CallerAddr string    `json:"caller_addr"`
	CreatedAt  time.Time `json:"created_at"`
}
