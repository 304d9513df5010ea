package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation for tests and
// single-process deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]Tenant
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory tenant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[uuid.UUID]Tenant),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, scope Scope, t *Tenant) error {
	if !scope.System {
		return ErrNoScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; exists {
		return ErrTenantExists
	}

	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	s.tenants[t.ID] = *t
	return nil
}

func (s *MemoryStore) Get(_ context.Context, scope Scope, id uuid.UUID) (*Tenant, error) {
	if !scope.CanAccess(id) {
		return nil, ErrTenantNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tenants[id]
	if !exists {
		return nil, ErrTenantNotFound
	}
	cp := t
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, scope Scope, t *Tenant) error {
	if !scope.CanAccess(t.ID) {
		return ErrTenantNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.tenants[t.ID]
	if !exists || existing.DeletedAt != nil {
		return ErrTenantNotFound
	}

	t.UpdatedAt = s.now()
	s.tenants[t.ID] = *t
	return nil
}

func (s *MemoryStore) Anonymize(_ context.Context, scope Scope, id uuid.UUID) error {
	if !scope.CanAccess(id) {
		return ErrTenantNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tenants[id]
	if !exists || t.DeletedAt != nil {
		return ErrTenantNotFound
	}

	now := s.now()
	t.Name = ""
	t.Email = ""
	t.Status = StatusSuspended
	t.DeletedAt = &now
	t.UpdatedAt = now
	s.tenants[id] = t
	return nil
}
