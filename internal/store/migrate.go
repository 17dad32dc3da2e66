package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		engine TEXT NOT NULL,
		namespace TEXT NOT NULL,
		status TEXT NOT NULL,
		url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		action TEXT NOT NULL,
		store_name TEXT,
		namespace TEXT,
		engine TEXT,
		status TEXT,
		message TEXT,
		caller_addr TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_store_name ON audit_logs (store_name, created_at DESC)`,
}

// Migrate applies the schema idempotently at startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
