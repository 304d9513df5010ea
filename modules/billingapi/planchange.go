package billingapi

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/hirelens/billingkit/pkg/audit"
	"github.com/hirelens/billingkit/pkg/billing"
	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/proration"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
)

type planChangeRequest struct {
	Plan  string `json:"plan"`
	Cycle string `json:"cycle"`
}

type planChangePreview struct {
	CurrentPlan     string    `json:"current_plan"`
	NewPlan         string    `json:"new_plan"`
	Cycle           string    `json:"cycle"`
	DaysRemaining   int       `json:"days_remaining"`
	PriceDifference int64     `json:"price_difference"`
	ProratedAmount  int64     `json:"prorated_amount"`
	IsUpgrade       bool      `json:"is_upgrade"`
	IsDowngrade     bool      `json:"is_downgrade"`
	Changes         plan.Diff `json:"changes"`
}

func (m *Module) handlePlanChangePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	var req planChangeRequest
	if !m.decodeBody(w, r, &req) {
		return
	}

	preview, err := m.previewPlanChange(r, scope, req)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, preview)
}

func (m *Module) handlePlanChangeCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	var req planChangeRequest
	if !m.decodeBody(w, r, &req) {
		return
	}

	cycle, err := parseCycle(req.Cycle)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}

	// Committing re-runs the proration so the amount owed is settled on
	// the state the change actually applies to, and recorded with it.
	preview, err := m.previewPlanChange(r, scope, req)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}

	sub, err := m.deps.Subs.ChangePlan(ctx, scope, scope.TenantID, req.Plan, cycle,
		audit.WithMetadata("prorated_amount", preview.ProratedAmount),
		audit.WithMetadata("price_difference", preview.PriceDifference),
		audit.WithMetadata("days_remaining", preview.DaysRemaining),
	)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, map[string]any{
		"plan":                 sub.PlanSlug,
		"cycle":                sub.Cycle,
		"status":               sub.Status,
		"current_period_start": sub.CurrentPeriodStart,
		"current_period_end":   sub.CurrentPeriodEnd,
		"prorated_amount":      preview.ProratedAmount,
		"price_difference":     preview.PriceDifference,
		"days_remaining":       preview.DaysRemaining,
	})
}

func (m *Module) previewPlanChange(r *http.Request, scope tenant.Scope, req planChangeRequest) (*planChangePreview, error) {
	ctx := r.Context()

	cycle, err := parseCycle(req.Cycle)
	if err != nil {
		return nil, err
	}

	newPlan, err := m.deps.Catalog.Get(req.Plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", subscription.ErrUnknownPlan, req.Plan)
	}
	newPrice := newPlan.Price(cycle).Amount

	currentPlan, sub, err := m.effectivePlan(ctx, scope)
	if err != nil {
		return nil, err
	}

	preview := &planChangePreview{
		CurrentPlan: currentPlan.Slug,
		NewPlan:     newPlan.Slug,
		Cycle:       string(cycle),
		Changes:     plan.ComparePlans(currentPlan, newPlan),
	}

	// Tenants without a paid subscription pay the full cycle up front.
	if sub == nil || currentPlan.IsFree() {
		res, err := proration.CalculateFirstPaid(newPrice, cycle.Days())
		if err != nil {
			return nil, err
		}
		preview.DaysRemaining = cycle.Days()
		fillPreview(preview, res)
		return preview, nil
	}

	currentPrice := currentPlan.Price(sub.Cycle).Amount
	cycleDays := sub.Cycle.Days()
	remaining := daysRemaining(m.now(), sub, cycleDays)

	res, err := proration.Calculate(currentPrice, newPrice, cycleDays, remaining)
	if err != nil {
		return nil, err
	}
	preview.DaysRemaining = remaining
	fillPreview(preview, res)
	return preview, nil
}

func fillPreview(preview *planChangePreview, res proration.Result) {
	preview.PriceDifference = res.PriceDifference
	preview.ProratedAmount = res.ProratedAmount
	preview.IsUpgrade = res.IsUpgrade
	preview.IsDowngrade = res.IsDowngrade
}

// daysRemaining counts partial days as whole ones so a tenant changing
// plans mid-day is credited for the day in progress, clamped to the
// cycle length.
func daysRemaining(now time.Time, sub *subscription.Subscription, cycleDays int) int {
	left := sub.CurrentPeriodEnd.Sub(now)
	if left <= 0 {
		return 0
	}
	days := int(math.Ceil(left.Hours() / 24))
	return min(days, cycleDays)
}

func parseCycle(s string) (plan.BillingCycle, error) {
	switch plan.BillingCycle(s) {
	case plan.CycleMonthly:
		return plan.CycleMonthly, nil
	case plan.CycleYearly:
		return plan.CycleYearly, nil
	default:
		return "", errors.Join(billing.ErrInvalidPayload,
			fmt.Errorf("cycle must be %q or %q", plan.CycleMonthly, plan.CycleYearly))
	}
}
