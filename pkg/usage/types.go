package usage

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies one metered action kind.
type EventType string

const (
	EventUpload       EventType = "upload"
	EventAnalysis     EventType = "analysis"
	EventAPICall      EventType = "api_call"
	EventStorageDelta EventType = "storage_delta"
)

// Event is an immutable record of one metered action performed by a tenant.
// Events are append-only; only the retention sweep ever removes them.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	Type        EventType      `json:"type"`
	ResourceRef string         `json:"resource_ref,omitempty"`
	// StorageDelta is the signed byte delta carried by storage_delta events.
	StorageDelta int64          `json:"storage_delta,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Summary is the per-tenant, per-period aggregate used for fast quota checks.
// It is created lazily on the first event of a period and only ever
// incremented, except by an explicit recomputation repair.
type Summary struct {
	TenantID     uuid.UUID           `json:"tenant_id"`
	Period       Period              `json:"period"`
	Counters     map[EventType]int64 `json:"counters"`
	StorageBytes int64               `json:"storage_bytes"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Count returns the counter for the given event type, zero when absent.
func (s *Summary) Count(t EventType) int64 {
	if s == nil || s.Counters == nil {
		return 0
	}
	return s.Counters[t]
}
