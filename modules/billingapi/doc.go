// Package billingapi mounts the billing control plane over HTTP:
// provider webhook ingestion, plan and feature queries, quota checks
// and consumption, plan-change preview/commit, and operator reports.
//
// Tenant routes resolve the caller's scope from the X-Tenant-ID header
// set by the authenticating application backend; admin routes require
// the bearer admin token and run under system scope.
package billingapi
