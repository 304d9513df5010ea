package billingapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hirelens/billingkit/pkg/billing"
	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/tenant"
	"github.com/hirelens/billingkit/pkg/usage"
)

const dateLayout = "2006-01-02"

func (m *Module) handleRevenueReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	from, to, err := m.reportRange(r)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}

	rep, err := m.deps.Reporter.Revenue(ctx, scope, from, to)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, rep)
}

func (m *Module) handleActivationsReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	from, to, err := m.reportRange(r)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}

	rep, err := m.deps.Reporter.Activations(ctx, scope, from, to)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, rep)
}

func (m *Module) handleChurnReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	from, to, err := m.reportRange(r)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}

	rep, err := m.deps.Reporter.Churn(ctx, scope, from, to)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, rep)
}

func (m *Module) handleUsageReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	period := usage.PeriodFor(plan.GranularityMonthly, m.now())
	if g := r.URL.Query().Get("granularity"); g != "" {
		period.Granularity = plan.Granularity(g)
	}
	if key := r.URL.Query().Get("period"); key != "" {
		period.Key = key
	}
	if _, _, err := period.Bounds(); err != nil {
		m.respondError(ctx, w, errors.Join(billing.ErrInvalidPayload, err))
		return
	}

	rep, err := m.deps.Reporter.UsageTotals(ctx, scope, period)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, rep)
}

// reportRange parses ?from / ?to dates, defaulting to the trailing 30
// days. The range is half-open: [from, to).
func (m *Module) reportRange(r *http.Request) (time.Time, time.Time, error) {
	now := m.now()
	from, to := now.AddDate(0, 0, -30), now

	q := r.URL.Query()
	var err error
	if s := q.Get("from"); s != "" {
		if from, err = time.Parse(dateLayout, s); err != nil {
			return time.Time{}, time.Time{}, errors.Join(billing.ErrInvalidPayload,
				fmt.Errorf("invalid from date %q", s))
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = time.Parse(dateLayout, s); err != nil {
			return time.Time{}, time.Time{}, errors.Join(billing.ErrInvalidPayload,
				fmt.Errorf("invalid to date %q", s))
		}
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.Join(billing.ErrInvalidPayload,
			fmt.Errorf("to must be after from"))
	}
	return from, to, nil
}
