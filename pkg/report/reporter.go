package report

import (
	"context"
	"errors"
	"time"

	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
	"github.com/hirelens/billingkit/pkg/usage"
)

// ErrSystemScopeOnly is returned when a report is requested without the
// operator identity.
var ErrSystemScopeOnly = errors.New("reports require system scope")

// RevenueReport is the contracted value of subscriptions started inside
// a range, at their plan list price. Amounts are in the smallest
// currency unit.
type RevenueReport struct {
	From   time.Time        `json:"from"`
	To     time.Time        `json:"to"`
	Total  int64            `json:"total"`
	ByPlan map[string]int64 `json:"by_plan"`
}

// ActivationReport counts subscriptions started inside a range.
type ActivationReport struct {
	From   time.Time      `json:"from"`
	To     time.Time      `json:"to"`
	Total  int            `json:"total"`
	ByPlan map[string]int `json:"by_plan"`
}

// ChurnReport counts subscriptions canceled inside a range.
type ChurnReport struct {
	From   time.Time      `json:"from"`
	To     time.Time      `json:"to"`
	Total  int            `json:"total"`
	ByPlan map[string]int `json:"by_plan"`
}

// UsageReport aggregates one period's consumption across all tenants.
type UsageReport struct {
	Period       usage.Period              `json:"period"`
	Tenants      int                       `json:"tenants"`
	Counters     map[usage.EventType]int64 `json:"counters"`
	StorageBytes int64                     `json:"storage_bytes"`
}

// Reporter produces the read-only administrative views. Every method
// requires system scope; the underlying stores enforce the same, so a
// mis-scoped call fails even if a future caller bypasses the Reporter.
type Reporter struct {
	subs    subscription.Store
	usage   usage.Store
	catalog *plan.Catalog
}

// NewReporter panics if any dependency is nil.
func NewReporter(subs subscription.Store, usageStore usage.Store, catalog *plan.Catalog) *Reporter {
	if subs == nil {
		panic("report: subscription store is required")
	}
	if usageStore == nil {
		panic("report: usage store is required")
	}
	if catalog == nil {
		panic("report: plan catalog is required")
	}
	return &Reporter{subs: subs, usage: usageStore, catalog: catalog}
}

// Revenue values subscriptions started in [from, to) at list price for
// their billing cycle. Free plans contribute zero but still appear in
// the per-plan breakdown.
func (r *Reporter) Revenue(ctx context.Context, scope tenant.Scope, from, to time.Time) (*RevenueReport, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	subs, err := r.subs.ListCreatedBetween(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}

	rep := &RevenueReport{From: from, To: to, ByPlan: make(map[string]int64)}
	for _, sub := range subs {
		p, err := r.catalog.Get(sub.PlanSlug)
		if err != nil {
			// Plans can be retired from the catalog while their
			// subscriptions live on; count them at zero.
			rep.ByPlan[sub.PlanSlug] += 0
			continue
		}
		amount := p.Price(sub.Cycle).Amount
		rep.ByPlan[sub.PlanSlug] += amount
		rep.Total += amount
	}
	return rep, nil
}

// Activations counts subscriptions started in [from, to).
func (r *Reporter) Activations(ctx context.Context, scope tenant.Scope, from, to time.Time) (*ActivationReport, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	subs, err := r.subs.ListCreatedBetween(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}

	rep := &ActivationReport{From: from, To: to, ByPlan: make(map[string]int)}
	for _, sub := range subs {
		rep.ByPlan[sub.PlanSlug]++
		rep.Total++
	}
	return rep, nil
}

// Churn counts subscriptions canceled in [from, to).
func (r *Reporter) Churn(ctx context.Context, scope tenant.Scope, from, to time.Time) (*ChurnReport, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	subs, err := r.subs.ListCanceledBetween(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}

	rep := &ChurnReport{From: from, To: to, ByPlan: make(map[string]int)}
	for _, sub := range subs {
		rep.ByPlan[sub.PlanSlug]++
		rep.Total++
	}
	return rep, nil
}

// UsageTotals sums every tenant's counters for the period.
func (r *Reporter) UsageTotals(ctx context.Context, scope tenant.Scope, period usage.Period) (*UsageReport, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	summaries, err := r.usage.ListSummaries(ctx, scope, period)
	if err != nil {
		return nil, err
	}

	rep := &UsageReport{Period: period, Counters: make(map[usage.EventType]int64)}
	for _, sum := range summaries {
		rep.Tenants++
		rep.StorageBytes += sum.StorageBytes
		for eventType, n := range sum.Counters {
			rep.Counters[eventType] += n
		}
	}
	return rep, nil
}
