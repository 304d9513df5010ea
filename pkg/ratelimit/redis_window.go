package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// bucketTTL outlives the bucket by a full hour so a count read right
// after rollover still resolves instead of silently resetting early.
const bucketTTL = 2 * time.Hour

// RedisWindow is a Window backed by Redis INCR with a TTL, giving all
// API nodes a shared hourly counter.
type RedisWindow struct {
	client *redis.Client
}

// NewRedisWindow panics if client is nil.
func NewRedisWindow(client *redis.Client) *RedisWindow {
	if client == nil {
		panic(ErrClientRequired)
	}
	return &RedisWindow{client: client}
}

func (w *RedisWindow) Count(ctx context.Context, key string, now time.Time) (int64, error) {
	if key == "" {
		return 0, ErrKeyRequired
	}

	n, err := w.client.Get(ctx, bucketKey(key, now)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (w *RedisWindow) Incr(ctx context.Context, key string, now time.Time) (int64, error) {
	if key == "" {
		return 0, ErrKeyRequired
	}

	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, bucketKey(key, now))
	pipe.Expire(ctx, bucketKey(key, now), bucketTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
