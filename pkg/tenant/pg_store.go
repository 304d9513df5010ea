package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/billingkit/pkg/pg"
)

// PGStore is the PostgreSQL-backed Store implementation.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a Store backed by the given connection pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	if db == nil {
		panic("tenant: db pool is required")
	}
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, scope Scope, t *Tenant) error {
	if !scope.System {
		return ErrNoScope
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO tenants (id, name, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`,
		t.ID, t.Name, t.Email, t.Status)
	if pg.IsDuplicateKeyError(err) {
		return ErrTenantExists
	}
	return err
}

func (s *PGStore) Get(ctx context.Context, scope Scope, id uuid.UUID) (*Tenant, error) {
	if !scope.CanAccess(id) {
		return nil, ErrTenantNotFound
	}

	var t Tenant
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, status, created_at, updated_at, deleted_at
		FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Email, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PGStore) Update(ctx context.Context, scope Scope, t *Tenant) error {
	if !scope.CanAccess(t.ID) {
		return ErrTenantNotFound
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE tenants
		SET name = $2, email = $3, status = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		t.ID, t.Name, t.Email, t.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (s *PGStore) Anonymize(ctx context.Context, scope Scope, id uuid.UUID) error {
	if !scope.CanAccess(id) {
		return ErrTenantNotFound
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE tenants
		SET name = '', email = '', status = $2, deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, StatusSuspended)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}
