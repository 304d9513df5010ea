package ratelimit

import (
	"context"
	"time"
)

// bucketFormat slots timestamps into fixed hourly buckets. A call at
// 10:59 and one at 11:00 land in different buckets; the counter resets
// at the top of each hour rather than sliding.
const bucketFormat = "2006-01-02T15"

// Window counts events per key inside the current hourly bucket.
type Window interface {
	// Count returns the number of events recorded for key in the hour
	// containing now. Missing buckets count as zero.
	Count(ctx context.Context, key string, now time.Time) (int64, error)

	// Incr records one event for key in the hour containing now and
	// returns the new count.
	Incr(ctx context.Context, key string, now time.Time) (int64, error)
}

// ResetAt returns when the bucket containing now rolls over.
func ResetAt(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(time.Hour)
}

func bucketKey(key string, now time.Time) string {
	return "ratelimit:" + key + ":" + now.UTC().Format(bucketFormat)
}
