package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/audit"
	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *plan.Catalog {
	t.Helper()

	c, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(map[string]plan.Plan{
		"free": {
			Slug: "free", Name: "Free", Public: true,
			Limits: map[plan.Limit]int64{plan.LimitUploads: 3, plan.LimitAnalyses: 3},
		},
		"pro": {
			Slug: "pro", Name: "Pro", Public: true, TrialDays: 14,
			MonthlyPrice: plan.Money{Amount: 1999, Currency: "USD"},
			Limits:       map[plan.Limit]int64{plan.LimitUploads: 100, plan.LimitAnalyses: 100},
		},
	}))
	require.NoError(t, err)
	return c
}

type fixture struct {
	svc     *subscription.Service
	store   *subscription.MemoryStore
	entries *audit.MemoryStorage
	system  tenant.Scope
}

func newFixture(t *testing.T, opts ...subscription.ServiceOption) *fixture {
	t.Helper()

	store := subscription.NewMemoryStore()
	entries := audit.NewMemoryStorage()
	opts = append([]subscription.ServiceOption{
		subscription.WithClock(func() time.Time { return testNow }),
	}, opts...)

	return &fixture{
		svc:     subscription.NewService(testCatalog(t), store, audit.NewLogger(entries), opts...),
		store:   store,
		entries: entries,
		system:  tenant.SystemScope("test"),
	}
}

func externalUpdate(tenantID uuid.UUID) subscription.ExternalUpdate {
	return subscription.ExternalUpdate{
		TenantID:    tenantID,
		ExternalID:  "sub_ext_1",
		PlanSlug:    "pro",
		Status:      subscription.StatusActive,
		PeriodStart: testNow,
		PeriodEnd:   testNow.AddDate(0, 1, 0),
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to subscription.Status
		allowed  bool
	}{
		{subscription.StatusTrialing, subscription.StatusActive, true},
		{subscription.StatusTrialing, subscription.StatusPastDue, true},
		{subscription.StatusActive, subscription.StatusPastDue, true},
		{subscription.StatusPastDue, subscription.StatusActive, true},
		{subscription.StatusPastDue, subscription.StatusUnpaid, true},
		{subscription.StatusUnpaid, subscription.StatusActive, true},
		{subscription.StatusCanceled, subscription.StatusActive, false},
		{subscription.StatusActive, subscription.StatusTrialing, false},
		{subscription.StatusActive, subscription.StatusActive, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, subscription.CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestStartFree(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tenantID := uuid.New()

	sub, err := f.svc.StartFree(context.Background(), f.system, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "free", sub.PlanSlug)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Empty(t, sub.ExternalID)

	// Second free signup hits the occupied slot.
	_, err = f.svc.StartFree(context.Background(), f.system, tenantID)
	require.ErrorIs(t, err, subscription.ErrCurrentSlotTaken)
}

func TestUpsertFromExternalEvent(t *testing.T) {
	t.Parallel()

	t.Run("creates subscription and cancels free tier", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()

		free, err := f.svc.StartFree(context.Background(), f.system, tenantID)
		require.NoError(t, err)

		sub, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, externalUpdate(tenantID))
		require.NoError(t, err)
		assert.Equal(t, "pro", sub.PlanSlug)

		current, err := f.store.GetCurrent(context.Background(), f.system, tenantID)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, current.ID, "new subscription holds the slot")
		assert.NotEqual(t, free.ID, current.ID)
	})

	t.Run("updates in place by external id", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()

		first, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, externalUpdate(tenantID))
		require.NoError(t, err)

		upd := externalUpdate(tenantID)
		upd.Status = subscription.StatusPastDue
		second, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, upd)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID, "same row updated, not replaced")
		assert.Equal(t, subscription.StatusPastDue, second.Status)
	})

	t.Run("stray canceled event leaves the current subscription alone", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()

		free, err := f.svc.StartFree(context.Background(), f.system, tenantID)
		require.NoError(t, err)

		upd := externalUpdate(tenantID)
		upd.ExternalID = "sub_ext_stray"
		upd.Status = subscription.StatusCanceled

		stray, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, upd)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCanceled, stray.Status)

		current, err := f.store.GetCurrent(context.Background(), f.system, tenantID)
		require.NoError(t, err)
		assert.Equal(t, free.ID, current.ID, "free tier keeps the slot")
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		upd := externalUpdate(uuid.New())
		upd.PlanSlug = "enterprise"

		_, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, upd)
		require.ErrorIs(t, err, subscription.ErrUnknownPlan)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		upd := externalUpdate(uuid.New())
		upd.Status = subscription.Status("paused")

		_, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, upd)
		require.ErrorIs(t, err, subscription.ErrInvalidStatus)
	})

	t.Run("rejects resurrection of canceled subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()

		_, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, externalUpdate(tenantID))
		require.NoError(t, err)
		_, err = f.svc.Cancel(context.Background(), f.system, tenantID, "user request")
		require.NoError(t, err)

		_, err = f.svc.UpsertFromExternalEvent(context.Background(), f.system, externalUpdate(tenantID))
		require.ErrorIs(t, err, subscription.ErrInvalidTransition)
	})

	t.Run("requires system scope", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()

		_, err := f.svc.UpsertFromExternalEvent(context.Background(), tenant.NewScope(tenantID), externalUpdate(tenantID))
		require.ErrorIs(t, err, subscription.ErrSystemScopeOnly)
	})
}

func TestOneCurrentSubscriptionInvariant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tenantID := uuid.New()

	// Concurrent activations with distinct external ids: exactly one may
	// hold the slot afterwards.
	const attempts = 8
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			upd := externalUpdate(tenantID)
			upd.ExternalID = "sub_ext_" + uuid.New().String()
			_, _ = f.svc.UpsertFromExternalEvent(context.Background(), f.system, upd)
		}()
	}
	wg.Wait()

	current, err := f.store.GetCurrent(context.Background(), f.system, tenantID)
	require.NoError(t, err)
	assert.True(t, current.IsCurrent())

	created, err := f.store.ListCreatedBetween(context.Background(), f.system, testNow.AddDate(0, 0, -1), testNow.AddDate(0, 0, 1))
	require.NoError(t, err)

	currentCount := 0
	for _, sub := range created {
		if sub.IsCurrent() {
			currentCount++
		}
	}
	assert.Equal(t, 1, currentCount)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	t.Run("cancels current subscription with audit trail", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()
		scope := tenant.NewScope(tenantID)

		_, err := f.svc.StartFree(context.Background(), f.system, tenantID)
		require.NoError(t, err)

		sub, err := f.svc.Cancel(context.Background(), scope, tenantID, "closing account")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCanceled, sub.Status)
		require.NotNil(t, sub.CanceledAt)

		entries, err := f.entries.List(context.Background(), audit.Filter{Action: "subscription.cancel"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "active", entries[0].Before["status"])
		assert.Equal(t, "canceled", entries[0].After["status"])
	})

	t.Run("no current subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, err := f.svc.Cancel(context.Background(), f.system, uuid.New(), "")
		require.ErrorIs(t, err, subscription.ErrNoCurrentSubscription)
	})

	t.Run("cross-tenant cancel reads as not found", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()
		_, err := f.svc.StartFree(context.Background(), f.system, tenantID)
		require.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), tenant.NewScope(uuid.New()), tenantID, "")
		require.ErrorIs(t, err, subscription.ErrNoCurrentSubscription)
	})
}

func TestChangePlan(t *testing.T) {
	t.Parallel()

	t.Run("moves to new plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()
		_, err := f.svc.StartFree(context.Background(), f.system, tenantID)
		require.NoError(t, err)

		sub, err := f.svc.ChangePlan(context.Background(), f.system, tenantID, "pro", plan.CycleMonthly)
		require.NoError(t, err)
		assert.Equal(t, "pro", sub.PlanSlug)
		assert.Equal(t, testNow, sub.CurrentPeriodStart)
		assert.Equal(t, testNow.AddDate(0, 0, 30), sub.CurrentPeriodEnd)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tenantID := uuid.New()
		_, err := f.svc.StartFree(context.Background(), f.system, tenantID)
		require.NoError(t, err)

		_, err = f.svc.ChangePlan(context.Background(), f.system, tenantID, "enterprise", plan.CycleMonthly)
		require.ErrorIs(t, err, subscription.ErrUnknownPlan)
	})

	t.Run("downgrade blocked by live usage", func(t *testing.T) {
		t.Parallel()

		counter := func(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, l plan.Limit) (int64, error) {
			if l == plan.LimitUploads {
				return 50, nil // over free's limit of 3
			}
			return 0, nil
		}

		f := newFixture(t, subscription.WithLimitCounter(counter))
		tenantID := uuid.New()
		_, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, externalUpdate(tenantID))
		require.NoError(t, err)

		_, err = f.svc.ChangePlan(context.Background(), f.system, tenantID, "free", plan.CycleNone)
		require.ErrorIs(t, err, subscription.ErrDowngradeNotPossible)
	})
}

func TestExpireTrials(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tenantID := uuid.New()

	yesterday := testNow.AddDate(0, 0, -1)
	upd := externalUpdate(tenantID)
	upd.Status = subscription.StatusTrialing
	upd.TrialEnd = &yesterday

	_, err := f.svc.UpsertFromExternalEvent(context.Background(), f.system, upd)
	require.NoError(t, err)

	t.Run("requires system scope", func(t *testing.T) {
		_, err := f.svc.ExpireTrials(context.Background(), tenant.NewScope(tenantID))
		require.ErrorIs(t, err, subscription.ErrSystemScopeOnly)
	})

	t.Run("flips expired trial to past_due once", func(t *testing.T) {
		n, err := f.svc.ExpireTrials(context.Background(), f.system)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		current, err := f.store.GetCurrent(context.Background(), f.system, tenantID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPastDue, current.Status)

		// Second run is a no-op: the row is already past_due.
		n, err = f.svc.ExpireTrials(context.Background(), f.system)
		require.NoError(t, err)
		assert.Zero(t, n)

		entries, err := f.entries.List(context.Background(), audit.Filter{Action: "subscription.trial_expired"})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestTrialDaysRemaining(t *testing.T) {
	t.Parallel()

	end := testNow.AddDate(0, 0, 10)
	sub := &subscription.Subscription{Status: subscription.StatusTrialing, TrialEndsAt: &end}

	assert.Equal(t, 10, sub.TrialDaysRemainingAt(testNow))
	assert.Equal(t, 0, sub.TrialDaysRemainingAt(end.Add(time.Hour)))

	sub.Status = subscription.StatusActive
	assert.Equal(t, 0, sub.TrialDaysRemainingAt(testNow))
}
