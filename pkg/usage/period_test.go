package usage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/usage"
)

func TestPeriodFor(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 29, 13, 45, 12, 0, time.UTC)

	tests := []struct {
		granularity plan.Granularity
		key         string
	}{
		{plan.GranularityHourly, "2026-08-29T13"},
		{plan.GranularityDaily, "2026-08-29"},
		{plan.GranularityMonthly, "2026-08"},
	}

	for _, tt := range tests {
		t.Run(string(tt.granularity), func(t *testing.T) {
			t.Parallel()

			p := usage.PeriodFor(tt.granularity, at)
			assert.Equal(t, tt.key, p.Key)
			assert.True(t, p.Contains(at))
		})
	}
}

func TestPeriodBounds(t *testing.T) {
	t.Parallel()

	t.Run("monthly", func(t *testing.T) {
		t.Parallel()

		p := usage.Period{Granularity: plan.GranularityMonthly, Key: "2026-08"}
		start, end, err := p.Bounds()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("daily", func(t *testing.T) {
		t.Parallel()

		p := usage.Period{Granularity: plan.GranularityDaily, Key: "2026-02-28"}
		start, end, err := p.Bounds()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("invalid key", func(t *testing.T) {
		t.Parallel()

		p := usage.Period{Granularity: plan.GranularityMonthly, Key: "garbage"}
		_, _, err := p.Bounds()
		require.ErrorIs(t, err, usage.ErrInvalidPeriod)
	})

	t.Run("month boundary excluded", func(t *testing.T) {
		t.Parallel()

		p := usage.Period{Granularity: plan.GranularityMonthly, Key: "2026-08"}
		assert.False(t, p.Contains(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, p.Contains(time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)))
	})
}
