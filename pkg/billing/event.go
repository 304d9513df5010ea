package billing

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the provider notification carried by an event.
// The set mirrors the lifecycle notifications every mainstream payment
// provider emits; unknown types are stored and acknowledged without
// side effects.
type EventType string

const (
	TypeSubscriptionCreated  EventType = "subscription.created"
	TypeSubscriptionUpdated  EventType = "subscription.updated"
	TypeSubscriptionCanceled EventType = "subscription.canceled"
	TypeTrialWillEnd         EventType = "subscription.trial_will_end"
	TypePaymentFailed        EventType = "payment.failed"
)

// Event is one provider notification. ExternalID is the provider's own
// event id and is unique per row, which is what makes ingestion
// idempotent under webhook redelivery.
type Event struct {
	ID              uuid.UUID
	ExternalID      string
	Type            EventType
	Payload         []byte
	Processed       bool
	Terminal        bool
	ProcessingError string
	Attempts        int
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
	LastAttemptAt   *time.Time
}

// Retryable reports whether the event is still eligible for another
// processing attempt.
func (e *Event) Retryable() bool {
	return !e.Processed && !e.Terminal
}

// Snapshot returns the loggable state of the event for audit entries.
func (e *Event) Snapshot() map[string]any {
	return map[string]any{
		"id":          e.ID.String(),
		"external_id": e.ExternalID,
		"type":        string(e.Type),
		"processed":   e.Processed,
		"terminal":    e.Terminal,
		"attempts":    e.Attempts,
	}
}
