package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopkube/shopkube/internal/domain"
)

// AuditRepo is the pgx-backed implementation of domain.AuditLog. Rows are
// append-only; nothing updates or deletes them apart from DeleteAll.
type AuditRepo struct {
	db *pgxpool.Pool
}

func NewAuditRepo(db *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditEvent) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO audit_logs (action, store_name, namespace, engine, status, message, caller_addr)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		e.Action, e.StoreName, e.Namespace, e.Engine, e.Status, e.Message, e.CallerAddr,
	).Scan(&e.ID, &e.CreatedAt)
}

// List returns the newest events first, optionally filtered by store name.
func (r *AuditRepo) List(ctx context.Context, storeName string, limit int) ([]domain.AuditEvent, error) {
	query := `SELECT id, action, store_name, namespace, engine, status, message, caller_addr, created_at
		 FROM audit_logs`
	args := []any{}
	if storeName != "" {
		query += ` WHERE store_name = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, storeName, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.Action, &e.StoreName, &e.Namespace, &e.Engine, &e.Status, &e.Message, &e.CallerAddr, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *AuditRepo) CountByAction(ctx context.Context) (map[domain.Action]int, error) {
	rows, err := r.db.Query(ctx, `SELECT action, COUNT(*) FROM audit_logs GROUP BY action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Action]int)
	for rows.Next() {
		var action domain.Action
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

func (r *AuditRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE audit_logs RESTART IDENTITY`)
	return err
}
