package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/billingkit/pkg/pg"
	"github.com/hirelens/billingkit/pkg/tenant"
)

// PGStore is the PostgreSQL-backed Store. The exclusive current-subscription
// slot is enforced by a partial unique index on tenant_id over rows whose
// status is trialing, active, past_due, or unpaid, so concurrent activations
// fail all but one with a duplicate-key error.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a Store backed by the given connection pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	if db == nil {
		panic("subscription: db pool is required")
	}
	return &PGStore{db: db}
}

const subscriptionColumns = `id, tenant_id, plan_slug, cycle, external_id, status,
	current_period_start, current_period_end, trial_ends_at, cancel_at, canceled_at,
	created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(&sub.ID, &sub.TenantID, &sub.PlanSlug, &sub.Cycle, &sub.ExternalID,
		&sub.Status, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEndsAt,
		&sub.CancelAt, &sub.CanceledAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *PGStore) Create(ctx context.Context, scope tenant.Scope, sub *Subscription) error {
	if !scope.CanAccess(sub.TenantID) {
		return ErrSubscriptionNotFound
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO subscriptions (id, tenant_id, plan_slug, cycle, external_id, status,
			current_period_start, current_period_end, trial_ends_at, cancel_at, canceled_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
		sub.ID, sub.TenantID, sub.PlanSlug, sub.Cycle, sub.ExternalID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEndsAt, sub.CancelAt, sub.CanceledAt)
	if pg.IsDuplicateKeyError(err) {
		return ErrCurrentSlotTaken
	}
	return err
}

func (s *PGStore) Update(ctx context.Context, scope tenant.Scope, sub *Subscription) error {
	if !scope.CanAccess(sub.TenantID) {
		return ErrSubscriptionNotFound
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE subscriptions SET plan_slug = $3, cycle = $4, external_id = $5, status = $6,
			current_period_start = $7, current_period_end = $8, trial_ends_at = $9,
			cancel_at = $10, canceled_at = $11, updated_at = now()
		WHERE id = $1 AND tenant_id = $2`,
		sub.ID, sub.TenantID, sub.PlanSlug, sub.Cycle, sub.ExternalID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEndsAt, sub.CancelAt, sub.CanceledAt)
	if pg.IsDuplicateKeyError(err) {
		return ErrCurrentSlotTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *PGStore) GetCurrent(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID) (*Subscription, error) {
	if !scope.CanAccess(tenantID) {
		return nil, ErrNoCurrentSubscription
	}

	sub, err := scanSubscription(s.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE tenant_id = $1 AND status IN ('trialing', 'active', 'past_due', 'unpaid')`,
		tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCurrentSubscription
	}
	return sub, err
}

func (s *PGStore) GetByExternalID(ctx context.Context, scope tenant.Scope, externalID string) (*Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	sub, err := scanSubscription(s.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE external_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, err
}

func (s *PGStore) ListExpiredTrials(ctx context.Context, scope tenant.Scope, now time.Time) ([]Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	return s.list(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE status IN ('trialing', 'active') AND trial_ends_at IS NOT NULL AND trial_ends_at < $1`,
		now)
}

func (s *PGStore) ListCreatedBetween(ctx context.Context, scope tenant.Scope, from, to time.Time) ([]Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	return s.list(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE created_at >= $1 AND created_at < $2`, from, to)
}

func (s *PGStore) ListCanceledBetween(ctx context.Context, scope tenant.Scope, from, to time.Time) ([]Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	return s.list(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE canceled_at IS NOT NULL AND canceled_at >= $1 AND canceled_at < $2`, from, to)
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]Subscription, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}
