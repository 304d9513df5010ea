package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for tenant persistence. Every method enforces
// the scope predicate: a tenant scope only ever sees its own record, a system
// scope sees any record. Cross-tenant access returns ErrTenantNotFound.
type Store interface {
	// Create inserts a new tenant record. System scope only.
	Create(ctx context.Context, scope Scope, t *Tenant) error

	// Get retrieves a tenant by ID, subject to the scope predicate.
	Get(ctx context.Context, scope Scope, id uuid.UUID) (*Tenant, error)

	// Update persists profile changes, subject to the scope predicate.
	Update(ctx context.Context, scope Scope, t *Tenant) error

	// Anonymize soft-deletes the tenant: profile fields are cleared and
	// DeletedAt is set, but the row survives for billing history.
	Anonymize(ctx context.Context, scope Scope, id uuid.UUID) error
}
