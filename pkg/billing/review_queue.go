package billing

import (
	"context"
	"sync"
)

// ReviewItem is an event handed to a human operator after automated
// processing gave up.
type ReviewItem struct {
	Event  Event
	Reason string
}

// ReviewQueue receives events that exhausted their retry budget.
type ReviewQueue interface {
	Enqueue(ctx context.Context, item ReviewItem) error
}

// MemoryReviewQueue collects review items in memory. Production
// deployments typically swap in a queue backed by a ticketing system.
type MemoryReviewQueue struct {
	mu    sync.Mutex
	items []ReviewItem
}

// NewMemoryReviewQueue creates an empty queue.
func NewMemoryReviewQueue() *MemoryReviewQueue {
	return &MemoryReviewQueue{}
}

func (q *MemoryReviewQueue) Enqueue(_ context.Context, item ReviewItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return nil
}

// Items returns a copy of everything enqueued so far.
func (q *MemoryReviewQueue) Items() []ReviewItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]ReviewItem, len(q.items))
	copy(out, q.items)
	return out
}
