package usage

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/tenant"
)

type summaryKey struct {
	tenantID uuid.UUID
	period   Period
}

// MemoryStore is an in-memory Store for tests and single-process deployments.
// A single mutex serializes all summary mutations, which trivially satisfies
// the no-lost-updates requirement.
type MemoryStore struct {
	mu        sync.RWMutex
	events    []Event
	summaries map[summaryKey]*Summary
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries: make(map[summaryKey]*Summary),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) AppendEvent(_ context.Context, scope tenant.Scope, ev *Event) error {
	if !scope.CanAccess(ev.TenantID) {
		return tenant.ErrTenantNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ev
	if cp.Metadata != nil {
		cp.Metadata = maps.Clone(cp.Metadata)
	}
	s.events = append(s.events, cp)
	return nil
}

func (s *MemoryStore) IncrementSummary(_ context.Context, scope tenant.Scope, tenantID uuid.UUID, period Period, eventType EventType, storageDelta int64) error {
	if !scope.CanAccess(tenantID) {
		return tenant.ErrTenantNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := summaryKey{tenantID: tenantID, period: period}
	sum, exists := s.summaries[key]
	if !exists {
		sum = &Summary{
			TenantID: tenantID,
			Period:   period,
			Counters: make(map[EventType]int64),
		}
		s.summaries[key] = sum
	}

	sum.Counters[eventType]++
	sum.StorageBytes += storageDelta
	sum.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) GetSummary(_ context.Context, scope tenant.Scope, tenantID uuid.UUID, period Period) (*Summary, error) {
	if !scope.CanAccess(tenantID) {
		return nil, ErrSummaryNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, exists := s.summaries[summaryKey{tenantID: tenantID, period: period}]
	if !exists {
		return nil, ErrSummaryNotFound
	}

	cp := *sum
	cp.Counters = maps.Clone(sum.Counters)
	return &cp, nil
}

func (s *MemoryStore) ListEvents(_ context.Context, scope tenant.Scope, tenantID uuid.UUID, from, to time.Time) ([]Event, error) {
	if !scope.CanAccess(tenantID) {
		return nil, tenant.ErrTenantNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, ev := range s.events {
		if ev.TenantID != tenantID {
			continue
		}
		if ev.OccurredAt.Before(from) || !ev.OccurredAt.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *MemoryStore) ReplaceSummary(_ context.Context, scope tenant.Scope, summary *Summary) error {
	if !scope.CanAccess(summary.TenantID) {
		return tenant.ErrTenantNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *summary
	cp.Counters = maps.Clone(summary.Counters)
	if cp.Counters == nil {
		cp.Counters = make(map[EventType]int64)
	}
	cp.UpdatedAt = s.now()
	s.summaries[summaryKey{tenantID: summary.TenantID, period: summary.Period}] = &cp
	return nil
}

func (s *MemoryStore) DeleteEventsBefore(_ context.Context, scope tenant.Scope, cutoff time.Time) (int64, error) {
	if !scope.System {
		return 0, ErrSystemScopeOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, ev := range s.events {
		if ev.OccurredAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return removed, nil
}

func (s *MemoryStore) ListSummaries(_ context.Context, scope tenant.Scope, period Period) ([]Summary, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Summary
	for key, sum := range s.summaries {
		if key.period != period {
			continue
		}
		cp := *sum
		cp.Counters = maps.Clone(sum.Counters)
		out = append(out, cp)
	}
	return out, nil
}
