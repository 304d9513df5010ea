package billing

import (
	"context"
	"time"
)

// Store persists billing events. Create must enforce ExternalID
// uniqueness at the storage level and return ErrDuplicateEvent on
// conflict; that constraint, not an application-level check, is what
// makes concurrent redelivery safe.
type Store interface {
	Create(ctx context.Context, ev *Event) error
	GetByExternalID(ctx context.Context, externalID string) (*Event, error)
	Update(ctx context.Context, ev *Event) error

	// ListRetryable returns unprocessed, non-terminal events received
	// before the cutoff, oldest first.
	ListRetryable(ctx context.Context, cutoff time.Time, limit int) ([]Event, error)
}
