package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopkube/shopkube/internal/domain"
)

const uniqueViolationCode = "23505"

// StoreRepo is the pgx-backed implementation of domain.StoreRepository.
type StoreRepo struct {
	db *pgxpool.Pool
}

func NewStoreRepo(db *pgxpool.Pool) *StoreRepo {
	return &StoreRepo{db: db}
}

func (r *StoreRepo) Insert(ctx context.Context, s *domain.Store) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO stores (name, engine, namespace, status, url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.Name, s.Engine, s.Namespace, s.Status, s.URL,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *StoreRepo) UpdateStatus(ctx context.Context, name string, status domain.Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE stores SET status = $1 WHERE name = $2`,
		status, name,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// FindByNameOrNamespace resolves a store by either identifier, so callers
// can pass whichever they hold.
func (r *StoreRepo) FindByNameOrNamespace(ctx context.Context, key string) (*domain.Store, error) {
	s := &domain.Store{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, engine, namespace, status, url, created_at
		 FROM stores WHERE name = $1 OR namespace = $1`,
		key,
	).Scan(&s.ID, &s.Name, &s.Engine, &s.Namespace, &s.Status, &s.URL, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *StoreRepo) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *StoreRepo) ListAll(ctx context.Context) ([]domain.Store, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, engine, namespace, status, url, created_at
		 FROM stores ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Engine, &s.Namespace, &s.Status, &s.URL, &s.CreatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *StoreRepo) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM stores GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status domain.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// DeleteAll clears the table and resets the identity sequence. Administrative
// reset only.
func (r *StoreRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE stores RESTART IDENTITY`)
	return err
}
