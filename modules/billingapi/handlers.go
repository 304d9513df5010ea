package billingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hirelens/billingkit/pkg/billing"
	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
)

// webhookEnvelope is the outer shape of provider webhook deliveries.
type webhookEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		m.respondError(ctx, w, errors.Join(billing.ErrInvalidPayload, err))
		return
	}

	ts, _ := strconv.ParseInt(r.Header.Get(billing.HeaderTimestamp), 10, 64)
	headers := billing.SignatureHeaders{
		Signature: r.Header.Get(billing.HeaderSignature),
		Timestamp: ts,
	}
	if err := billing.VerifySignature(m.cfg.WebhookSecret, body, headers, m.cfg.SignatureMaxAge, m.now()); err != nil {
		m.respondError(ctx, w, err)
		return
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		m.respondError(ctx, w, errors.Join(billing.ErrInvalidPayload, err))
		return
	}

	scope := tenant.SystemScope("billing-webhook")
	res, err := m.deps.Processor.Ingest(tenant.WithScope(ctx, scope), scope,
		env.ID, billing.EventType(env.Type), env.Data)
	if err != nil {
		// Includes processing failures: the event is recorded, but a
		// non-2xx tells the provider to redeliver, and the retry sweep
		// covers it either way.
		m.respondError(ctx, w, err)
		return
	}

	m.respond(w, http.StatusOK, map[string]any{
		"received":  true,
		"duplicate": res.AlreadyProcessed,
	})
}

func (m *Module) handleListPlans(w http.ResponseWriter, _ *http.Request) {
	m.respond(w, http.StatusOK, map[string]any{"plans": m.deps.Catalog.List()})
}

func (m *Module) handleTenantFeatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	p, sub, err := m.effectivePlan(ctx, scope)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}

	data := map[string]any{
		"plan":     p.Slug,
		"features": p.Features,
		"limits":   p.Limits,
	}
	if sub != nil {
		data["status"] = sub.Status
		data["current_period_end"] = sub.CurrentPeriodEnd
		if sub.TrialEndsAt != nil {
			data["trial_days_remaining"] = sub.TrialDaysRemainingAt(m.now())
		}
	}
	m.respond(w, http.StatusOK, data)
}

func (m *Module) handleQuotaCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)

	v, err := m.deps.Enforcer.Check(ctx, scope, plan.Limit(chi.URLParam(r, "limit")))
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, v)
}

func (m *Module) handleQuotaConsume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := tenant.MustScopeFromContext(ctx)
	limit := plan.Limit(chi.URLParam(r, "limit"))

	if err := m.deps.Gate.Allow(ctx, scope, limit); err != nil {
		m.respondError(ctx, w, err)
		return
	}

	v, err := m.deps.Enforcer.Check(ctx, scope, limit)
	if err != nil {
		m.respondError(ctx, w, err)
		return
	}
	m.respond(w, http.StatusOK, v)
}

// effectivePlan resolves the plan quota and feature checks run against:
// the current subscription's plan, or the free plan for tenants without
// one. The subscription is nil in the fallback case.
func (m *Module) effectivePlan(ctx context.Context, scope tenant.Scope) (plan.Plan, *subscription.Subscription, error) {
	sub, err := m.deps.Subs.Current(ctx, scope, scope.TenantID)
	if errors.Is(err, subscription.ErrNoCurrentSubscription) {
		return m.deps.Catalog.Free(), nil, nil
	}
	if err != nil {
		return plan.Plan{}, nil, err
	}

	p, err := m.deps.Catalog.Get(sub.PlanSlug)
	if err != nil {
		return plan.Plan{}, nil, fmt.Errorf("subscription %s references plan %q: %w", sub.ID, sub.PlanSlug, err)
	}
	return p, sub, nil
}
