package billingapi

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hirelens/billingkit/pkg/billing"
	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/quota"
	"github.com/hirelens/billingkit/pkg/report"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
)

// Config holds the module's HTTP-facing settings.
type Config struct {
	// WebhookSecret authenticates provider webhook payloads.
	WebhookSecret   string
	SignatureMaxAge time.Duration

	// AdminToken guards the /admin/reports endpoints.
	AdminToken string
}

// Deps are the services the module exposes over HTTP.
type Deps struct {
	Catalog   *plan.Catalog
	Tenants   tenant.Store
	Subs      *subscription.Service
	Enforcer  *quota.Enforcer
	Gate      *quota.Gate
	Processor *billing.Processor
	Reporter  *report.Reporter
}

// Module is the billing HTTP surface: webhook ingestion, quota and plan
// queries, plan changes, and operator reports.
type Module struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
	now  func() time.Time
}

// Option configures optional Module settings.
type Option func(*Module)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Module) {
		if now != nil {
			m.now = now
		}
	}
}

// NewModule panics on missing dependencies so wiring mistakes surface
// at startup.
func NewModule(cfg Config, deps Deps, opts ...Option) *Module {
	if cfg.WebhookSecret == "" {
		panic("billingapi: webhook secret is required")
	}
	if deps.Catalog == nil || deps.Tenants == nil || deps.Subs == nil ||
		deps.Enforcer == nil || deps.Gate == nil || deps.Processor == nil ||
		deps.Reporter == nil {
		panic("billingapi: all dependencies are required")
	}
	if cfg.SignatureMaxAge == 0 {
		cfg.SignatureMaxAge = billing.DefaultSignatureMaxAge
	}

	m := &Module{
		cfg:  cfg,
		deps: deps,
		log:  slog.Default(),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Router assembles the chi routes.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/billing/webhook", m.handleWebhook)
	r.Get("/plans", m.handleListPlans)

	r.Group(func(r chi.Router) {
		r.Use(m.requireTenant)
		r.Get("/tenant/features", m.handleTenantFeatures)
		r.Get("/quota/{limit}", m.handleQuotaCheck)
		r.Post("/quota/{limit}/consume", m.handleQuotaConsume)
		r.Post("/plan-change/preview", m.handlePlanChangePreview)
		r.Post("/plan-change/commit", m.handlePlanChangeCommit)
	})

	r.Group(func(r chi.Router) {
		r.Use(m.requireAdmin)
		r.Get("/admin/reports/revenue", m.handleRevenueReport)
		r.Get("/admin/reports/activations", m.handleActivationsReport)
		r.Get("/admin/reports/churn", m.handleChurnReport)
		r.Get("/admin/reports/usage", m.handleUsageReport)
	})

	return r
}
