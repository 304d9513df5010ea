package billingapi

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/hirelens/billingkit/pkg/config"
	"github.com/hirelens/billingkit/pkg/httpserver"
)

// Serve mounts the API router together with orchestrator probes and
// blocks until ctx is canceled or the listener fails. The checks feed
// the readiness probe; pass pg.Healthcheck and redis.Healthcheck from
// the composition root.
func (m *Module) Serve(ctx context.Context, cfg config.HTTPConfig, checks ...func(context.Context) error) error {
	r := chi.NewRouter()
	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(m.log, checks...))
	r.Mount("/", m.Router())

	return httpserver.New(cfg, m.log).Run(ctx, r)
}
