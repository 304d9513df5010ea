package proration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/proration"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	t.Run("upgrade mid-cycle", func(t *testing.T) {
		t.Parallel()

		// 1999 -> 4999 with 20 of 30 days left: 3000/30*20 = 2000.
		res, err := proration.Calculate(1999, 4999, 30, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), res.PriceDifference)
		assert.Equal(t, int64(2000), res.ProratedAmount)
		assert.True(t, res.IsUpgrade)
		assert.False(t, res.IsDowngrade)
	})

	t.Run("downgrade has no charge", func(t *testing.T) {
		t.Parallel()

		for _, remaining := range []int{0, 10, 30} {
			res, err := proration.Calculate(4999, 1999, 30, remaining)
			require.NoError(t, err)
			assert.Zero(t, res.ProratedAmount)
			assert.True(t, res.IsDowngrade)
			assert.False(t, res.IsUpgrade)
			assert.Equal(t, int64(-3000), res.PriceDifference)
		}
	})

	t.Run("lateral move has no charge", func(t *testing.T) {
		t.Parallel()

		res, err := proration.Calculate(1999, 1999, 30, 15)
		require.NoError(t, err)
		assert.Zero(t, res.ProratedAmount)
		assert.False(t, res.IsUpgrade)
		assert.False(t, res.IsDowngrade)
	})

	t.Run("rounds half-up", func(t *testing.T) {
		t.Parallel()

		// 100/30*7 = 23.33.. -> 23; 100/30*8 = 26.66.. -> 27.
		res, err := proration.Calculate(0, 100, 30, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(23), res.ProratedAmount)

		res, err = proration.Calculate(0, 100, 30, 8)
		require.NoError(t, err)
		assert.Equal(t, int64(27), res.ProratedAmount)

		// Exact .5 rounds up: 1/2*1 = 0.5 -> 1.
		res, err = proration.Calculate(0, 1, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ProratedAmount)
	})

	t.Run("full cycle upgrade charges full difference", func(t *testing.T) {
		t.Parallel()

		res, err := proration.Calculate(1999, 4999, 30, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), res.ProratedAmount)
	})

	t.Run("invalid bounds", func(t *testing.T) {
		t.Parallel()

		_, err := proration.Calculate(0, 100, 0, 0)
		require.ErrorIs(t, err, proration.ErrInvalidCycle)

		_, err = proration.Calculate(0, 100, 30, 31)
		require.ErrorIs(t, err, proration.ErrInvalidCycle)

		_, err = proration.Calculate(0, 100, 30, -1)
		require.ErrorIs(t, err, proration.ErrInvalidCycle)
	})
}

func TestCalculateFirstPaid(t *testing.T) {
	t.Parallel()

	res, err := proration.CalculateFirstPaid(4999, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(4999), res.ProratedAmount)
	assert.Equal(t, int64(4999), res.PriceDifference)
	assert.True(t, res.IsUpgrade)

	_, err = proration.CalculateFirstPaid(4999, 0)
	require.ErrorIs(t, err, proration.ErrInvalidCycle)
}
