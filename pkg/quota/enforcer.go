package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
	"github.com/hirelens/billingkit/pkg/usage"
)

// Verdict is the outcome of a quota check. Callers surface it to clients
// as-is; Remaining is clamped at zero so the UI never shows a negative.
type Verdict struct {
	LimitType plan.Limit `json:"limit"`
	Current   int64      `json:"current"`
	Limit     int64      `json:"max"`
	Remaining int64      `json:"remaining"`
	Exceeded  bool       `json:"exceeded"`
}

// Unlimited reports whether the resolved plan places no ceiling on the
// resource.
func (v Verdict) Unlimited() bool { return v.Limit == plan.Unlimited }

// UsageReader supplies current consumption counters. *usage.Ledger
// satisfies it.
type UsageReader interface {
	CurrentCount(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, eventType usage.EventType, g plan.Granularity) (int64, error)
	StorageBytes(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID) (int64, error)
}

// PlanResolver yields the tenant's current subscription.
// *subscription.Service satisfies it.
type PlanResolver interface {
	Current(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID) (*subscription.Subscription, error)
}

// RateWindow counts events inside the current fixed hourly window. Only
// hourly limits consult it; monthly limits read the usage ledger.
type RateWindow interface {
	Count(ctx context.Context, key string, now time.Time) (int64, error)
	Incr(ctx context.Context, key string, now time.Time) (int64, error)
}

// Enforcer answers "may this tenant consume one more unit of X" by
// combining the plan catalog, the tenant's current subscription and the
// usage counters. Check never mutates anything.
type Enforcer struct {
	catalog *plan.Catalog
	subs    PlanResolver
	usage   UsageReader
	window  RateWindow
	now     func() time.Time
}

// EnforcerOption configures optional Enforcer collaborators.
type EnforcerOption func(*Enforcer)

// WithRateWindow wires the hourly counter used for api_calls.
func WithRateWindow(w RateWindow) EnforcerOption {
	return func(e *Enforcer) { e.window = w }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) EnforcerOption {
	return func(e *Enforcer) { e.now = now }
}

// NewEnforcer panics if any required dependency is nil.
func NewEnforcer(catalog *plan.Catalog, subs PlanResolver, reader UsageReader, opts ...EnforcerOption) *Enforcer {
	if catalog == nil {
		panic("quota: catalog is required")
	}
	if subs == nil {
		panic("quota: plan resolver is required")
	}
	if reader == nil {
		panic("quota: usage reader is required")
	}

	e := &Enforcer{
		catalog: catalog,
		subs:    subs,
		usage:   reader,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check resolves the tenant's effective plan and compares current
// consumption against the limit. Tenants without a current subscription
// are measured against the free plan. A missing usage summary counts as
// zero consumption.
func (e *Enforcer) Check(ctx context.Context, scope tenant.Scope, limit plan.Limit) (Verdict, error) {
	if scope.TenantID == uuid.Nil {
		return Verdict{}, tenant.ErrNoScope
	}

	p, err := e.resolvePlan(ctx, scope)
	if err != nil {
		return Verdict{}, err
	}

	current, err := e.currentUsage(ctx, scope, limit)
	if err != nil {
		return Verdict{}, err
	}

	max := p.LimitFor(limit)
	v := Verdict{
		LimitType: limit,
		Current:   current,
		Limit:     max,
	}
	if max == plan.Unlimited {
		v.Remaining = plan.Unlimited
		return v, nil
	}

	v.Exceeded = current >= max
	if remaining := max - current; remaining > 0 {
		v.Remaining = remaining
	}
	return v, nil
}

func (e *Enforcer) resolvePlan(ctx context.Context, scope tenant.Scope) (plan.Plan, error) {
	sub, err := e.subs.Current(ctx, scope, scope.TenantID)
	if errors.Is(err, subscription.ErrNoCurrentSubscription) {
		return e.catalog.Free(), nil
	}
	if err != nil {
		return plan.Plan{}, errors.Join(ErrPlanResolution, err)
	}

	p, err := e.catalog.Get(sub.PlanSlug)
	if err != nil {
		return plan.Plan{}, errors.Join(ErrPlanResolution, fmt.Errorf("subscription %s references plan %q: %w", sub.ID, sub.PlanSlug, err))
	}
	return p, nil
}

func (e *Enforcer) currentUsage(ctx context.Context, scope tenant.Scope, limit plan.Limit) (int64, error) {
	switch limit {
	case plan.LimitUploads:
		return e.usage.CurrentCount(ctx, scope, scope.TenantID, usage.EventUpload, plan.GranularityMonthly)
	case plan.LimitAnalyses:
		return e.usage.CurrentCount(ctx, scope, scope.TenantID, usage.EventAnalysis, plan.GranularityMonthly)
	case plan.LimitStorageBytes:
		return e.usage.StorageBytes(ctx, scope, scope.TenantID)
	case plan.LimitAPICalls:
		if e.window == nil {
			return 0, ErrNoRateWindow
		}
		return e.window.Count(ctx, scope.TenantID.String(), e.now())
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLimit, limit)
	}
}
