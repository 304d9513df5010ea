package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/audit"
	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/tenant"
)

// slotRetryAttempts bounds the insert-and-retry loop that resolves
// concurrent activation races on the current-subscription slot.
const slotRetryAttempts = 3

// ExternalUpdate carries the subscription state reported by the external
// payment processor.
type ExternalUpdate struct {
	TenantID    uuid.UUID
	ExternalID  string
	PlanSlug    string
	Status      Status
	PeriodStart time.Time
	PeriodEnd   time.Time
	TrialEnd    *time.Time
}

// LimitCounter returns a tenant's live usage for a limit, used to validate
// downgrades against current consumption.
type LimitCounter func(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, l plan.Limit) (int64, error)

// Service owns the single current subscription state per tenant. All
// mutations flow through it so every transition is validated against the
// status graph and audit-logged.
type Service struct {
	catalog *plan.Catalog
	store   Store
	auditor audit.Logger
	counter LimitCounter
	log     *slog.Logger
	now     func() time.Time
}

// ServiceOption configures optional Service settings.
type ServiceOption func(*Service)

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLimitCounter wires live usage lookups into downgrade validation.
// Without one, downgrades are allowed unconditionally.
func WithLimitCounter(fn LimitCounter) ServiceOption {
	return func(s *Service) { s.counter = fn }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the lifecycle manager.
// Panics if any required dependency is nil to fail fast during initialization.
func NewService(catalog *plan.Catalog, store Store, auditor audit.Logger, opts ...ServiceOption) *Service {
	if catalog == nil {
		panic("subscription: plan catalog is required")
	}
	if store == nil {
		panic("subscription: store is required")
	}
	if auditor == nil {
		panic("subscription: audit logger is required")
	}

	s := &Service{
		catalog: catalog,
		store:   store,
		auditor: auditor,
		log:     slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the tenant's current subscription.
func (s *Service) Current(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID) (*Subscription, error) {
	return s.store.GetCurrent(ctx, scope, tenantID)
}

// StartFree creates the free-tier subscription a tenant receives at signup.
// Free subscriptions have no external reference and never expire.
func (s *Service) StartFree(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID) (*Subscription, error) {
	free := s.catalog.Free()
	now := s.now()

	sub := &Subscription{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		PlanSlug:           free.Slug,
		Cycle:              plan.CycleNone,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}

	if err := s.store.Create(ctx, scope, sub); err != nil {
		return nil, err
	}

	_ = s.auditor.Log(ctx, "subscription.start_free",
		audit.WithTenant(tenantID),
		audit.WithAfter(sub.Snapshot()),
	)
	return sub, nil
}

// UpsertFromExternalEvent applies a provider-reported subscription state.
//
// If a subscription with the given external id exists, its status and period
// fields are updated in place. Otherwise any existing current subscription
// for the tenant is canceled first and the new row inserted as the sole
// holder of the current slot: last writer wins on creation, not on update.
// A storage-level slot conflict from a concurrent activation is resolved by
// re-reading and retrying rather than surfacing to the caller.
func (s *Service) UpsertFromExternalEvent(ctx context.Context, scope tenant.Scope, upd ExternalUpdate) (*Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}
	if !IsValidStatus(upd.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, upd.Status)
	}
	if !s.catalog.Has(upd.PlanSlug) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, upd.PlanSlug)
	}

	existing, err := s.store.GetByExternalID(ctx, scope, upd.ExternalID)
	switch {
	case err == nil:
		return s.applyExternalUpdate(ctx, scope, existing, upd)
	case errors.Is(err, ErrSubscriptionNotFound):
		return s.insertFromExternal(ctx, scope, upd)
	default:
		return nil, err
	}
}

func (s *Service) applyExternalUpdate(ctx context.Context, scope tenant.Scope, sub *Subscription, upd ExternalUpdate) (*Subscription, error) {
	if !CanTransition(sub.Status, upd.Status) {
		err := fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, upd.Status)
		_ = s.auditor.LogError(ctx, "subscription.external_update", err,
			audit.WithTenant(sub.TenantID),
			audit.WithBefore(sub.Snapshot()),
		)
		return nil, err
	}

	before := sub.Snapshot()
	sub.PlanSlug = upd.PlanSlug
	sub.Status = upd.Status
	sub.CurrentPeriodStart = upd.PeriodStart
	sub.CurrentPeriodEnd = upd.PeriodEnd
	sub.TrialEndsAt = upd.TrialEnd
	if upd.Status == StatusCanceled && sub.CanceledAt == nil {
		now := s.now()
		sub.CanceledAt = &now
	}

	if err := s.store.Update(ctx, scope, sub); err != nil {
		return nil, err
	}

	_ = s.auditor.Log(ctx, "subscription.external_update",
		audit.WithTenant(sub.TenantID),
		audit.WithBefore(before),
		audit.WithAfter(sub.Snapshot()),
	)
	return sub, nil
}

func (s *Service) insertFromExternal(ctx context.Context, scope tenant.Scope, upd ExternalUpdate) (*Subscription, error) {
	for attempt := range slotRetryAttempts {
		// Vacate the slot first: a provider-reported live subscription
		// replaces whatever the tenant had (typically the free tier). A
		// stray terminal event for an unknown id is recorded for history
		// without touching the current subscription.
		if currentStatuses[upd.Status] {
			if current, err := s.store.GetCurrent(ctx, scope, upd.TenantID); err == nil {
				if err := s.cancelSubscription(ctx, scope, current, "superseded by external subscription"); err != nil && !errors.Is(err, ErrCurrentSlotTaken) {
					return nil, err
				}
			} else if !errors.Is(err, ErrNoCurrentSubscription) {
				return nil, err
			}
		}

		sub := &Subscription{
			ID:                 uuid.New(),
			TenantID:           upd.TenantID,
			PlanSlug:           upd.PlanSlug,
			Cycle:              plan.CycleMonthly,
			ExternalID:         upd.ExternalID,
			Status:             upd.Status,
			CurrentPeriodStart: upd.PeriodStart,
			CurrentPeriodEnd:   upd.PeriodEnd,
			TrialEndsAt:        upd.TrialEnd,
		}

		err := s.store.Create(ctx, scope, sub)
		if errors.Is(err, ErrCurrentSlotTaken) {
			// A concurrent activation won the slot; re-read and try again.
			s.log.WarnContext(ctx, "current-subscription slot conflict, retrying",
				"tenant_id", upd.TenantID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		_ = s.auditor.Log(ctx, "subscription.external_create",
			audit.WithTenant(upd.TenantID),
			audit.WithAfter(sub.Snapshot()),
		)
		return sub, nil
	}

	return nil, ErrCurrentSlotTaken
}

// Cancel cancels the tenant's current subscription. Requires one to exist.
func (s *Service) Cancel(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, reason string) (*Subscription, error) {
	sub, err := s.store.GetCurrent(ctx, scope, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.cancelSubscription(ctx, scope, sub, reason); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) cancelSubscription(ctx context.Context, scope tenant.Scope, sub *Subscription, reason string) error {
	if !CanTransition(sub.Status, StatusCanceled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, StatusCanceled)
	}

	before := sub.Snapshot()
	now := s.now()
	sub.Status = StatusCanceled
	sub.CanceledAt = &now

	if err := s.store.Update(ctx, scope, sub); err != nil {
		_ = s.auditor.LogError(ctx, "subscription.cancel", err,
			audit.WithTenant(sub.TenantID),
			audit.WithBefore(before),
		)
		return err
	}

	_ = s.auditor.Log(ctx, "subscription.cancel",
		audit.WithTenant(sub.TenantID),
		audit.WithBefore(before),
		audit.WithAfter(sub.Snapshot()),
		audit.WithMetadata("reason", reason),
	)
	return nil
}

// ChangePlan moves the tenant's current subscription to a new plan. The
// caller is expected to have previewed and settled any prorated charge
// before committing; auditOpts lets it record that charge on the
// subscription.change_plan audit entry.
func (s *Service) ChangePlan(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, newSlug string, cycle plan.BillingCycle, auditOpts ...audit.EntryOption) (*Subscription, error) {
	if !s.catalog.Has(newSlug) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, newSlug)
	}

	sub, err := s.store.GetCurrent(ctx, scope, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.CanDowngrade(ctx, scope, tenantID, sub.PlanSlug, newSlug); err != nil {
		return nil, err
	}

	before := sub.Snapshot()
	now := s.now()
	sub.PlanSlug = newSlug
	sub.Cycle = cycle
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = now.AddDate(0, 0, cycle.Days())

	if err := s.store.Update(ctx, scope, sub); err != nil {
		return nil, err
	}

	entryOpts := append([]audit.EntryOption{
		audit.WithTenant(tenantID),
		audit.WithBefore(before),
		audit.WithAfter(sub.Snapshot()),
	}, auditOpts...)
	_ = s.auditor.Log(ctx, "subscription.change_plan", entryOpts...)
	return sub, nil
}

// CanDowngrade checks whether the tenant's live usage fits inside the target
// plan's limits. Limits the target raises or leaves unlimited are skipped.
func (s *Service) CanDowngrade(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, currentSlug, targetSlug string) error {
	if s.counter == nil {
		return nil
	}

	current, err := s.catalog.Get(currentSlug)
	if err != nil {
		return err
	}
	target, err := s.catalog.Get(targetSlug)
	if err != nil {
		return err
	}

	for l, targetLimit := range plan.ComparePlans(current, target).LimitsLowered {
		used, err := s.counter(ctx, scope, tenantID, l)
		if err != nil {
			return err
		}
		if used > targetLimit {
			return fmt.Errorf("%w: %s usage %d exceeds target limit %d", ErrDowngradeNotPossible, l, used, targetLimit)
		}
	}
	return nil
}

// ExpireTrials flips subscriptions whose trial ended before now to past_due,
// recording one audit entry per transition. Running it again is a no-op for
// already expired rows. Returns the number of subscriptions transitioned.
func (s *Service) ExpireTrials(ctx context.Context, scope tenant.Scope) (int, error) {
	if !scope.System {
		return 0, ErrSystemScopeOnly
	}

	now := s.now()
	expired, err := s.store.ListExpiredTrials(ctx, scope, now)
	if err != nil {
		return 0, err
	}

	transitioned := 0
	for i := range expired {
		sub := &expired[i]
		before := sub.Snapshot()
		sub.Status = StatusPastDue

		if err := s.store.Update(ctx, scope, sub); err != nil {
			s.log.ErrorContext(ctx, "failed to expire trial",
				"subscription_id", sub.ID, "error", err)
			continue
		}

		transitioned++
		_ = s.auditor.Log(ctx, "subscription.trial_expired",
			audit.WithTenant(sub.TenantID),
			audit.WithBefore(before),
			audit.WithAfter(sub.Snapshot()),
		)
	}
	return transitioned, nil
}
