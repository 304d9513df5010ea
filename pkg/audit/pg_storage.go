package audit

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStorage is the PostgreSQL-backed audit Storage.
type PGStorage struct {
	db *pgxpool.Pool
}

// NewPGStorage creates a Storage backed by the given connection pool.
func NewPGStorage(db *pgxpool.Pool) *PGStorage {
	if db == nil {
		panic("audit: db pool is required")
	}
	return &PGStorage{db: db}
}

func (s *PGStorage) Store(ctx context.Context, entry Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO audit_log (id, tenant_id, actor, action, result, before, after, error, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.TenantID, entry.Actor, entry.Action, entry.Result,
		entry.Before, entry.After, entry.Error, entry.Metadata, entry.CreatedAt)
	return err
}

func (s *PGStorage) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `
		SELECT id, tenant_id, actor, action, result, before, after, error, metadata, created_at
		FROM audit_log WHERE 1=1`
	args := make([]any, 0, 4)

	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		query += " AND tenant_id = $" + strconv.Itoa(len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += " AND action = $" + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += " AND created_at >= $" + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += " AND created_at < $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Actor, &e.Action, &e.Result,
			&e.Before, &e.After, &e.Error, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
