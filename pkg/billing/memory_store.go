package billing

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*Event // keyed by ExternalID
}

// NewMemoryStore creates an empty in-memory billing event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]*Event)}
}

func (s *MemoryStore) Create(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[ev.ExternalID]; exists {
		return ErrDuplicateEvent
	}

	cp := *ev
	s.events[ev.ExternalID] = &cp
	return nil
}

func (s *MemoryStore) GetByExternalID(_ context.Context, externalID string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[externalID]
	if !ok {
		return nil, ErrEventNotFound
	}

	cp := *ev
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.ExternalID]; !ok {
		return ErrEventNotFound
	}

	cp := *ev
	s.events[ev.ExternalID] = &cp
	return nil
}

func (s *MemoryStore) ListRetryable(_ context.Context, cutoff time.Time, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, ev := range s.events {
		if ev.Retryable() && ev.ReceivedAt.Before(cutoff) {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
