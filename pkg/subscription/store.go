package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/tenant"
)

// Store defines the persistence contract for subscriptions. Implementations
// must enforce the exclusive current-subscription slot per tenant at the
// storage layer: Create returns ErrCurrentSlotTaken when the tenant already
// has a subscription in a current status, even under concurrent attempts.
type Store interface {
	// Create inserts a new subscription row.
	Create(ctx context.Context, scope tenant.Scope, sub *Subscription) error

	// Update persists changes to an existing row, keyed by ID. The slot
	// constraint applies: reviving a row into a current status while another
	// row holds the slot returns ErrCurrentSlotTaken.
	Update(ctx context.Context, scope tenant.Scope, sub *Subscription) error

	// GetCurrent returns the tenant's subscription occupying the current
	// slot, or ErrNoCurrentSubscription.
	GetCurrent(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID) (*Subscription, error)

	// GetByExternalID returns the subscription carrying the provider's
	// external reference, or ErrSubscriptionNotFound. System scope only:
	// the external id arrives on webhooks before a tenant is resolved.
	GetByExternalID(ctx context.Context, scope tenant.Scope, externalID string) (*Subscription, error)

	// ListExpiredTrials returns current subscriptions still trialing or
	// active whose trial ended before now. System scope only.
	ListExpiredTrials(ctx context.Context, scope tenant.Scope, now time.Time) ([]Subscription, error)

	// ListCreatedBetween returns subscriptions created in [from, to),
	// for activation reporting. System scope only.
	ListCreatedBetween(ctx context.Context, scope tenant.Scope, from, to time.Time) ([]Subscription, error)

	// ListCanceledBetween returns subscriptions canceled in [from, to),
	// for churn reporting. System scope only.
	ListCanceledBetween(ctx context.Context, scope tenant.Scope, from, to time.Time) ([]Subscription, error)
}
