package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/tenant"
)

func TestScope(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	otherID := uuid.New()

	t.Run("tenant scope accesses only its own rows", func(t *testing.T) {
		t.Parallel()

		scope := tenant.NewScope(tenantID)
		assert.True(t, scope.CanAccess(tenantID))
		assert.False(t, scope.CanAccess(otherID))
		assert.False(t, scope.IsZero())
	})

	t.Run("system scope accesses everything", func(t *testing.T) {
		t.Parallel()

		scope := tenant.SystemScope("billing-processor")
		assert.True(t, scope.CanAccess(tenantID))
		assert.True(t, scope.CanAccess(otherID))
	})

	t.Run("zero scope accesses nothing", func(t *testing.T) {
		t.Parallel()

		var scope tenant.Scope
		assert.True(t, scope.IsZero())
		assert.False(t, scope.CanAccess(tenantID))
	})
}

func TestScopeContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		scope := tenant.NewScope(uuid.New())
		ctx := tenant.WithScope(context.Background(), scope)

		got, ok := tenant.ScopeFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, scope, got)
	})

	t.Run("missing scope", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.ScopeFromContext(context.Background())
		assert.False(t, ok)
		assert.Panics(t, func() { tenant.MustScopeFromContext(context.Background()) })
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	system := tenant.SystemScope("test")

	newTenant := func() *tenant.Tenant {
		return &tenant.Tenant{
			ID:     uuid.New(),
			Name:   "Acme Recruiting",
			Email:  "ops@acme.test",
			Status: tenant.StatusActive,
		}
	}

	t.Run("create and get", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		tn := newTenant()
		require.NoError(t, store.Create(context.Background(), system, tn))

		got, err := store.Get(context.Background(), tenant.NewScope(tn.ID), tn.ID)
		require.NoError(t, err)
		assert.Equal(t, tn.Name, got.Name)
		assert.True(t, got.IsActive())
	})

	t.Run("create requires system scope", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		tn := newTenant()
		err := store.Create(context.Background(), tenant.NewScope(tn.ID), tn)
		require.ErrorIs(t, err, tenant.ErrNoScope)
	})

	t.Run("duplicate create rejected", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		tn := newTenant()
		require.NoError(t, store.Create(context.Background(), system, tn))
		require.ErrorIs(t, store.Create(context.Background(), system, tn), tenant.ErrTenantExists)
	})

	t.Run("cross-tenant read is not found", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		tn := newTenant()
		require.NoError(t, store.Create(context.Background(), system, tn))

		_, err := store.Get(context.Background(), tenant.NewScope(uuid.New()), tn.ID)
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("anonymize clears profile but keeps the row", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		tn := newTenant()
		require.NoError(t, store.Create(context.Background(), system, tn))
		require.NoError(t, store.Anonymize(context.Background(), system, tn.ID))

		got, err := store.Get(context.Background(), system, tn.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Name)
		assert.Empty(t, got.Email)
		assert.NotNil(t, got.DeletedAt)
		assert.False(t, got.IsActive())

		// Already anonymized rows cannot be anonymized again.
		require.ErrorIs(t, store.Anonymize(context.Background(), system, tn.ID), tenant.ErrTenantNotFound)
	})
}
