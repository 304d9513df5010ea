package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryWindow is an in-process Window for tests and single-node
// deployments. Stale buckets are pruned on write.
type MemoryWindow struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryWindow creates an empty in-memory window.
func NewMemoryWindow() *MemoryWindow {
	return &MemoryWindow{counts: make(map[string]int64)}
}

func (w *MemoryWindow) Count(_ context.Context, key string, now time.Time) (int64, error) {
	if key == "" {
		return 0, ErrKeyRequired
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts[bucketKey(key, now)], nil
}

func (w *MemoryWindow) Incr(_ context.Context, key string, now time.Time) (int64, error) {
	if key == "" {
		return 0, ErrKeyRequired
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	k := bucketKey(key, now)
	w.counts[k]++
	return w.counts[k], nil
}

// prune drops buckets older than the previous hour. Holding on to the
// previous bucket keeps Count stable for callers straddling a rollover.
func (w *MemoryWindow) prune(now time.Time) {
	keep := map[string]struct{}{
		now.UTC().Format(bucketFormat):                 {},
		now.UTC().Add(-time.Hour).Format(bucketFormat): {},
	}
	for k := range w.counts {
		suffix := k[strings.LastIndexByte(k, ':')+1:]
		if _, ok := keep[suffix]; !ok {
			delete(w.counts, k)
		}
	}
}
