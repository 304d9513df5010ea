package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/billingkit/pkg/tenant"
)

// PGStore is the PostgreSQL-backed Store. The summary upsert is a single
// INSERT .. ON CONFLICT .. DO UPDATE statement, so concurrent increments for
// the same (tenant, period) serialize on the row inside the database and no
// update is ever lost.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a Store backed by the given connection pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	if db == nil {
		panic("usage: db pool is required")
	}
	return &PGStore{db: db}
}

func (s *PGStore) AppendEvent(ctx context.Context, scope tenant.Scope, ev *Event) error {
	if !scope.CanAccess(ev.TenantID) {
		return tenant.ErrTenantNotFound
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO usage_events (id, tenant_id, event_type, resource_ref, storage_delta, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.TenantID, ev.Type, ev.ResourceRef, ev.StorageDelta, ev.Metadata, ev.OccurredAt)
	return err
}

func (s *PGStore) IncrementSummary(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, period Period, eventType EventType, storageDelta int64) error {
	if !scope.CanAccess(tenantID) {
		return tenant.ErrTenantNotFound
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO usage_summaries (tenant_id, granularity, period_key, counters, storage_bytes, updated_at)
		VALUES ($1, $2, $3, jsonb_build_object($4::text, 1), $5, now())
		ON CONFLICT (tenant_id, granularity, period_key) DO UPDATE SET
			counters = usage_summaries.counters ||
				jsonb_build_object($4::text, COALESCE((usage_summaries.counters->>$4)::bigint, 0) + 1),
			storage_bytes = usage_summaries.storage_bytes + $5,
			updated_at = now()`,
		tenantID, period.Granularity, period.Key, eventType, storageDelta)
	return err
}

func (s *PGStore) GetSummary(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, period Period) (*Summary, error) {
	if !scope.CanAccess(tenantID) {
		return nil, ErrSummaryNotFound
	}

	sum := &Summary{TenantID: tenantID, Period: period}
	err := s.db.QueryRow(ctx, `
		SELECT counters, storage_bytes, updated_at
		FROM usage_summaries
		WHERE tenant_id = $1 AND granularity = $2 AND period_key = $3`,
		tenantID, period.Granularity, period.Key).
		Scan(&sum.Counters, &sum.StorageBytes, &sum.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *PGStore) ListEvents(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, from, to time.Time) ([]Event, error) {
	if !scope.CanAccess(tenantID) {
		return nil, tenant.ErrTenantNotFound
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, event_type, resource_ref, storage_delta, metadata, occurred_at
		FROM usage_events
		WHERE tenant_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at, id`,
		tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.Type, &ev.ResourceRef, &ev.StorageDelta, &ev.Metadata, &ev.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PGStore) ReplaceSummary(ctx context.Context, scope tenant.Scope, summary *Summary) error {
	if !scope.CanAccess(summary.TenantID) {
		return tenant.ErrTenantNotFound
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO usage_summaries (tenant_id, granularity, period_key, counters, storage_bytes, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (tenant_id, granularity, period_key) DO UPDATE SET
			counters = EXCLUDED.counters,
			storage_bytes = EXCLUDED.storage_bytes,
			updated_at = now()`,
		summary.TenantID, summary.Period.Granularity, summary.Period.Key, summary.Counters, summary.StorageBytes)
	return err
}

func (s *PGStore) DeleteEventsBefore(ctx context.Context, scope tenant.Scope, cutoff time.Time) (int64, error) {
	if !scope.System {
		return 0, ErrSystemScopeOnly
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM usage_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) ListSummaries(ctx context.Context, scope tenant.Scope, period Period) ([]Summary, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	rows, err := s.db.Query(ctx, `
		SELECT tenant_id, counters, storage_bytes, updated_at
		FROM usage_summaries
		WHERE granularity = $1 AND period_key = $2`,
		period.Granularity, period.Key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum := Summary{Period: period}
		if err := rows.Scan(&sum.TenantID, &sum.Counters, &sum.StorageBytes, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
