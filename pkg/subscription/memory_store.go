package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/tenant"
)

// MemoryStore is an in-memory Store for tests and single-process use.
// One mutex guards all rows plus the per-tenant slot index, so the
// create-into-occupied-slot race resolves to exactly one winner.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]Subscription
	slots map[uuid.UUID]uuid.UUID // tenantID -> id of the current subscription
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:  make(map[uuid.UUID]Subscription),
		slots: make(map[uuid.UUID]uuid.UUID),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, scope tenant.Scope, sub *Subscription) error {
	if !scope.CanAccess(sub.TenantID) {
		return ErrSubscriptionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.IsCurrent() {
		if _, taken := s.slots[sub.TenantID]; taken {
			return ErrCurrentSlotTaken
		}
	}

	now := s.now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	s.rows[sub.ID] = *sub
	if sub.IsCurrent() {
		s.slots[sub.TenantID] = sub.ID
	}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, scope tenant.Scope, sub *Subscription) error {
	if !scope.CanAccess(sub.TenantID) {
		return ErrSubscriptionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rows[sub.ID]
	if !exists || existing.TenantID != sub.TenantID {
		return ErrSubscriptionNotFound
	}

	holder, taken := s.slots[sub.TenantID]
	if sub.IsCurrent() && taken && holder != sub.ID {
		return ErrCurrentSlotTaken
	}

	sub.UpdatedAt = s.now()
	s.rows[sub.ID] = *sub

	if sub.IsCurrent() {
		s.slots[sub.TenantID] = sub.ID
	} else if taken && holder == sub.ID {
		delete(s.slots, sub.TenantID)
	}
	return nil
}

func (s *MemoryStore) GetCurrent(_ context.Context, scope tenant.Scope, tenantID uuid.UUID) (*Subscription, error) {
	if !scope.CanAccess(tenantID) {
		return nil, ErrNoCurrentSubscription
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.slots[tenantID]
	if !exists {
		return nil, ErrNoCurrentSubscription
	}
	cp := s.rows[id]
	return &cp, nil
}

func (s *MemoryStore) GetByExternalID(_ context.Context, scope tenant.Scope, externalID string) (*Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ExternalID != "" && row.ExternalID == externalID {
			cp := row
			return &cp, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

func (s *MemoryStore) ListExpiredTrials(_ context.Context, scope tenant.Scope, now time.Time) ([]Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Subscription
	for _, row := range s.rows {
		if row.Status != StatusTrialing && row.Status != StatusActive {
			continue
		}
		if row.TrialEndsAt == nil || !row.TrialEndsAt.Before(now) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *MemoryStore) ListCreatedBetween(_ context.Context, scope tenant.Scope, from, to time.Time) ([]Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Subscription
	for _, row := range s.rows {
		if !row.CreatedAt.Before(from) && row.CreatedAt.Before(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListCanceledBetween(_ context.Context, scope tenant.Scope, from, to time.Time) ([]Subscription, error) {
	if !scope.System {
		return nil, ErrSystemScopeOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Subscription
	for _, row := range s.rows {
		if row.CanceledAt == nil {
			continue
		}
		if !row.CanceledAt.Before(from) && row.CanceledAt.Before(to) {
			out = append(out, row)
		}
	}
	return out, nil
}
