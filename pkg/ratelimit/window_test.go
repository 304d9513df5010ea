package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/ratelimit"
)

var windowNow = time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

func TestMemoryWindow(t *testing.T) {
	t.Parallel()

	t.Run("counts within the hour", func(t *testing.T) {
		t.Parallel()

		w := ratelimit.NewMemoryWindow()
		ctx := context.Background()

		for i := int64(1); i <= 3; i++ {
			n, err := w.Incr(ctx, "tenant-a", windowNow)
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}

		n, err := w.Count(ctx, "tenant-a", windowNow.Add(20*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("resets at the top of the hour", func(t *testing.T) {
		t.Parallel()

		w := ratelimit.NewMemoryWindow()
		ctx := context.Background()

		_, err := w.Incr(ctx, "tenant-a", windowNow)
		require.NoError(t, err)

		n, err := w.Count(ctx, "tenant-a", windowNow.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		w := ratelimit.NewMemoryWindow()
		ctx := context.Background()

		_, err := w.Incr(ctx, "tenant-a", windowNow)
		require.NoError(t, err)

		n, err := w.Count(ctx, "tenant-b", windowNow)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()

		w := ratelimit.NewMemoryWindow()
		_, err := w.Incr(context.Background(), "", windowNow)
		require.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	})
}

func TestRedisWindow(t *testing.T) {
	t.Parallel()

	newWindow := func(t *testing.T) (*ratelimit.RedisWindow, *miniredis.Miniredis) {
		t.Helper()

		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return ratelimit.NewRedisWindow(client), mr
	}

	t.Run("incr and count", func(t *testing.T) {
		t.Parallel()

		w, _ := newWindow(t)
		ctx := context.Background()

		n, err := w.Incr(ctx, "tenant-a", windowNow)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = w.Incr(ctx, "tenant-a", windowNow)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = w.Count(ctx, "tenant-a", windowNow)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("missing bucket counts as zero", func(t *testing.T) {
		t.Parallel()

		w, _ := newWindow(t)
		n, err := w.Count(context.Background(), "tenant-a", windowNow)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("bucket expires", func(t *testing.T) {
		t.Parallel()

		w, mr := newWindow(t)
		ctx := context.Background()

		_, err := w.Incr(ctx, "tenant-a", windowNow)
		require.NoError(t, err)

		mr.FastForward(3 * time.Hour)

		n, err := w.Count(ctx, "tenant-a", windowNow)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("separate hours use separate buckets", func(t *testing.T) {
		t.Parallel()

		w, _ := newWindow(t)
		ctx := context.Background()

		_, err := w.Incr(ctx, "tenant-a", windowNow)
		require.NoError(t, err)
		_, err = w.Incr(ctx, "tenant-a", windowNow.Add(time.Hour))
		require.NoError(t, err)

		n, err := w.Count(ctx, "tenant-a", windowNow)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestResetAt(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC),
		ratelimit.ResetAt(windowNow))
}
