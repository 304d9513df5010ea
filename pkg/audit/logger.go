package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/tenant"
)

// Storage persists audit entries.
type Storage interface {
	Store(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	TenantID *uuid.UUID
	Action   string
	From     time.Time
	To       time.Time
}

// Logger is the single choke-point every state mutation reports through.
// Services call Log/LogError around their writes so the audit trail captures
// both successful and failed attempts to change tenant-owned state.
type Logger interface {
	Log(ctx context.Context, action string, opts ...EntryOption) error
	LogError(ctx context.Context, action string, err error, opts ...EntryOption) error
}

type logger struct {
	storage Storage
	now     func() time.Time
}

// Option configures the logger.
type Option func(*logger)

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger creates an audit logger writing to storage.
// Panics if storage is nil to fail fast during initialization.
func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &logger{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records a successful action. The actor and tenant attribution are
// derived from the scope in the context when present.
func (l *logger) Log(ctx context.Context, action string, opts ...EntryOption) error {
	entry := l.entryFromContext(ctx)
	entry.Action = action
	entry.Result = ResultSuccess

	for _, opt := range opts {
		opt(&entry)
	}

	if err := entry.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, entry)
}

// LogError records a failed action.
func (l *logger) LogError(ctx context.Context, action string, actionErr error, opts ...EntryOption) error {
	entry := l.entryFromContext(ctx)
	entry.Action = action
	entry.Result = ResultError
	if actionErr != nil {
		entry.Error = actionErr.Error()
	}

	for _, opt := range opts {
		opt(&entry)
	}

	if err := entry.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, entry)
}

func (l *logger) entryFromContext(ctx context.Context) Entry {
	entry := Entry{
		ID:        uuid.New(),
		CreatedAt: l.now(),
	}

	if scope, ok := tenant.ScopeFromContext(ctx); ok {
		if scope.System {
			entry.Actor = "system:" + scope.Actor
		} else if scope.TenantID != uuid.Nil {
			id := scope.TenantID
			entry.TenantID = &id
			entry.Actor = id.String()
		}
	}
	return entry
}
