// Package httpserver wraps net/http with graceful shutdown and probe
// handlers for the billing API.
//
// Server takes its address and timeouts from config.HTTPConfig and
// blocks in Run until the context is canceled or an interrupt/TERM
// signal arrives, then drains in-flight requests within the configured
// shutdown timeout.
//
// Liveness and Readiness produce the orchestrator probe endpoints;
// readiness accepts dependency check funcs such as pg.Healthcheck and
// redis.Healthcheck.
//
//	srv := httpserver.New(cfg.HTTP, log)
//	err := srv.Run(ctx, router)
package httpserver
