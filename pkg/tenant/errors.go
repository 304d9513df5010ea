package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found, including
	// when a scope attempts to read a row owned by another tenant. Isolation
	// violations deliberately surface as not-found to avoid existence leakage.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrNoScope is returned when an operation requires an identity and the
	// context carries none.
	ErrNoScope = errors.New("no tenant scope in context")

	// ErrInactiveTenant is returned when trying to use a suspended or
	// anonymized tenant.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrTenantExists is returned when creating a tenant with an ID that is
	// already taken.
	ErrTenantExists = errors.New("tenant already exists")
)
