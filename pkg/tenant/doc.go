// Package tenant provides the tenant directory and the isolation scope that
// every persistence operation in the control plane runs under.
//
// A Scope identifies who an operation runs as: either a single tenant, or an
// elevated system actor (billing ingestion, scheduled sweeps, administrative
// reporting). Stores refuse to execute without a scope and inject the
// tenant-id predicate automatically, so calling code cannot bypass isolation.
// Cross-tenant access surfaces as ErrTenantNotFound, never as access-denied,
// to avoid leaking row existence.
//
// # Usage
//
//	ctx := tenant.WithScope(r.Context(), tenant.NewScope(tenantID))
//	t, err := store.Get(ctx, tenant.MustScopeFromContext(ctx), tenantID)
//
// Background jobs run under a system scope and must audit-log their actions:
//
//	scope := tenant.SystemScope("retention-sweep")
package tenant
