package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/audit"
	"github.com/hirelens/billingkit/pkg/tenant"
)

func TestLoggerLog(t *testing.T) {
	t.Parallel()

	t.Run("attributes tenant scope", func(t *testing.T) {
		t.Parallel()

		storage := audit.NewMemoryStorage()
		logger := audit.NewLogger(storage)

		tenantID := uuid.New()
		ctx := tenant.WithScope(context.Background(), tenant.NewScope(tenantID))

		err := logger.Log(ctx, "subscription.cancel",
			audit.WithBefore(map[string]any{"status": "active"}),
			audit.WithAfter(map[string]any{"status": "canceled"}),
		)
		require.NoError(t, err)

		entries, err := storage.List(context.Background(), audit.Filter{TenantID: &tenantID})
		require.NoError(t, err)
		require.Len(t, entries, 1)

		entry := entries[0]
		assert.Equal(t, "subscription.cancel", entry.Action)
		assert.Equal(t, audit.ResultSuccess, entry.Result)
		assert.Equal(t, tenantID.String(), entry.Actor)
		assert.Equal(t, "active", entry.Before["status"])
		assert.Equal(t, "canceled", entry.After["status"])
	})

	t.Run("attributes system scope", func(t *testing.T) {
		t.Parallel()

		storage := audit.NewMemoryStorage()
		logger := audit.NewLogger(storage)

		ctx := tenant.WithScope(context.Background(), tenant.SystemScope("trial-sweep"))
		require.NoError(t, logger.Log(ctx, "subscription.expire_trials"))

		entries, err := storage.List(context.Background(), audit.Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "system:trial-sweep", entries[0].Actor)
		assert.Nil(t, entries[0].TenantID)
	})

	t.Run("rejects empty action", func(t *testing.T) {
		t.Parallel()

		logger := audit.NewLogger(audit.NewMemoryStorage())
		err := logger.Log(context.Background(), "")
		require.ErrorIs(t, err, audit.ErrEntryValidation)
	})

	t.Run("records failures", func(t *testing.T) {
		t.Parallel()

		storage := audit.NewMemoryStorage()
		logger := audit.NewLogger(storage)

		err := logger.LogError(context.Background(), "billing.ingest", errors.New("downstream timeout"),
			audit.WithMetadata("external_event_id", "evt_1"))
		require.NoError(t, err)

		entries, err := storage.List(context.Background(), audit.Filter{Action: "billing.ingest"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ResultError, entries[0].Result)
		assert.Equal(t, "downstream timeout", entries[0].Error)
		assert.Equal(t, "evt_1", entries[0].Metadata["external_event_id"])
	})
}

func TestMemoryStorageFilter(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	clock := base
	logger := audit.NewLogger(storage, audit.WithClock(func() time.Time { return clock }))

	require.NoError(t, logger.Log(context.Background(), "a"))
	clock = base.AddDate(0, 0, 10)
	require.NoError(t, logger.Log(context.Background(), "b"))

	entries, err := storage.List(context.Background(), audit.Filter{From: base.AddDate(0, 0, 5)})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Action)
}
