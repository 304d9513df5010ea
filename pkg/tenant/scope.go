package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Scope identifies who a persistence operation runs as. Tenant-owned reads
// and writes require a tenant scope; background jobs and administrative
// reporting run under an elevated system scope that bypasses the per-tenant
// predicate but is itself audit-logged.
type Scope struct {
	TenantID uuid.UUID
	System   bool
	Actor    string // system actor name (e.g. "billing-processor", "sweep")
}

// IsZero reports whether the scope carries no identity at all.
func (s Scope) IsZero() bool {
	return !s.System && s.TenantID == uuid.Nil
}

// CanAccess reports whether the scope may touch rows owned by tenantID.
// System scopes may touch any row.
func (s Scope) CanAccess(tenantID uuid.UUID) bool {
	if s.System {
		return true
	}
	return s.TenantID != uuid.Nil && s.TenantID == tenantID
}

// NewScope returns a scope bound to a single tenant.
func NewScope(tenantID uuid.UUID) Scope {
	return Scope{TenantID: tenantID}
}

// SystemScope returns an elevated scope for the named system actor.
// Callers must audit-log actions taken under it.
func SystemScope(actor string) Scope {
	return Scope{System: true, Actor: actor}
}

type scopeContextKey struct{}

// WithScope adds a scope to the context.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext retrieves the scope from the context.
// Returns a zero scope and false if none is present.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	return scope, ok
}

// MustScopeFromContext retrieves the scope from the context.
// Panics if no scope is found. Use this only in handlers that
// absolutely require an authenticated identity to function.
func MustScopeFromContext(ctx context.Context) Scope {
	scope, ok := ScopeFromContext(ctx)
	if !ok {
		panic("tenant: no scope in context")
	}
	return scope
}

// LoggerExtractor returns a ContextExtractor for the logger that extracts
// the scoped identity from the context.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		scope, ok := ScopeFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		if scope.System {
			return slog.String("actor", "system:"+scope.Actor), true
		}
		return slog.String("tenant_id", scope.TenantID.String()), true
	}
}
