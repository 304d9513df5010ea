package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/plan"
)

func testPlans() map[string]plan.Plan {
	return map[string]plan.Plan{
		"free": {
			Slug:   "free",
			Name:   "Free",
			Public: true,
			Limits: map[plan.Limit]int64{
				plan.LimitUploads:      3,
				plan.LimitAnalyses:     3,
				plan.LimitStorageBytes: 50 << 20,
				plan.LimitAPICalls:     10,
			},
			Features: map[plan.Feature]bool{},
		},
		"pro": {
			Slug:         "pro",
			Name:         "Pro",
			Public:       true,
			MonthlyPrice: plan.Money{Amount: 1999, Currency: "USD"},
			YearlyPrice:  plan.Money{Amount: 19990, Currency: "USD"},
			TrialDays:    14,
			Limits: map[plan.Limit]int64{
				plan.LimitUploads:      100,
				plan.LimitAnalyses:     100,
				plan.LimitStorageBytes: 5 << 30,
				plan.LimitAPICalls:     1000,
			},
			Features: map[plan.Feature]bool{
				plan.FeatureAIScoring: true,
				plan.FeatureAPI:       true,
			},
		},
		"business": {
			Slug:         "business",
			Name:         "Business",
			Public:       true,
			MonthlyPrice: plan.Money{Amount: 4999, Currency: "USD"},
			YearlyPrice:  plan.Money{Amount: 49990, Currency: "USD"},
			Limits: map[plan.Limit]int64{
				plan.LimitUploads:      plan.Unlimited,
				plan.LimitAnalyses:     plan.Unlimited,
				plan.LimitStorageBytes: plan.Unlimited,
				plan.LimitAPICalls:     plan.Unlimited,
			},
			Features: map[plan.Feature]bool{
				plan.FeatureAIScoring:       true,
				plan.FeatureAPI:             true,
				plan.FeatureBulkUpload:      true,
				plan.FeaturePrioritySupport: true,
			},
		},
	}
}

func TestNewCatalog(t *testing.T) {
	t.Parallel()

	t.Run("successful creation", func(t *testing.T) {
		t.Parallel()

		c, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(testPlans()))
		require.NoError(t, err)
		assert.Equal(t, "free", c.Free().Slug)
	})

	t.Run("slug mismatch rejected", func(t *testing.T) {
		t.Parallel()

		plans := testPlans()
		p := plans["pro"]
		p.Slug = "other"
		plans["pro"] = p

		_, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(plans))
		require.ErrorIs(t, err, plan.ErrInvalidPlanConfiguration)
	})

	t.Run("negative trial days rejected", func(t *testing.T) {
		t.Parallel()

		plans := testPlans()
		p := plans["pro"]
		p.TrialDays = -1
		plans["pro"] = p

		_, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(plans))
		require.ErrorIs(t, err, plan.ErrInvalidPlanConfiguration)
	})

	t.Run("missing free plan rejected", func(t *testing.T) {
		t.Parallel()

		plans := testPlans()
		delete(plans, "free")

		_, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(plans))
		require.ErrorIs(t, err, plan.ErrNoFreePlan)
	})

	t.Run("invalid limit value rejected", func(t *testing.T) {
		t.Parallel()

		plans := testPlans()
		p := plans["free"]
		p.Limits[plan.LimitUploads] = -7
		plans["free"] = p

		_, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(plans))
		require.ErrorIs(t, err, plan.ErrInvalidPlanConfiguration)
	})
}

func TestCatalogGet(t *testing.T) {
	t.Parallel()

	c, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(testPlans()))
	require.NoError(t, err)

	t.Run("known slug", func(t *testing.T) {
		t.Parallel()

		p, err := c.Get("pro")
		require.NoError(t, err)
		assert.Equal(t, int64(100), p.LimitFor(plan.LimitUploads))
		assert.True(t, p.HasFeature(plan.FeatureAIScoring))
	})

	t.Run("unknown slug", func(t *testing.T) {
		t.Parallel()

		_, err := c.Get("enterprise")
		require.ErrorIs(t, err, plan.ErrPlanNotFound)
	})
}

func TestCatalogList(t *testing.T) {
	t.Parallel()

	plans := testPlans()
	plans["hidden"] = plan.Plan{Slug: "hidden", Name: "Hidden", Public: false}

	c, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(plans))
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"free", "pro", "business"}, []string{list[0].Slug, list[1].Slug, list[2].Slug})
}

func TestLimitGranularity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, plan.GranularityHourly, plan.LimitAPICalls.Granularity())
	assert.Equal(t, plan.GranularityMonthly, plan.LimitUploads.Granularity())
	assert.Equal(t, plan.GranularityMonthly, plan.LimitStorageBytes.Granularity())
}

func TestLimitFor(t *testing.T) {
	t.Parallel()

	p := testPlans()["free"]

	// Limits absent from the plan fail closed.
	assert.Equal(t, int64(0), p.LimitFor(plan.Limit("unknown")))
	assert.Equal(t, int64(3), p.LimitFor(plan.LimitUploads))
}
