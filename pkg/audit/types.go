package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result represents the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

// Entry is a single append-only audit record. Entries capture before/after
// snapshots of the mutated state for compliance and debugging and are never
// mutated after being stored.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  *uuid.UUID     `json:"tenant_id,omitempty"` // nil for system-wide actions
	Actor     string         `json:"actor"`               // tenant id or system actor name
	Action    string         `json:"action"`
	Result    Result         `json:"result"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks that the entry carries the required fields.
func (e *Entry) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEntryValidation)
	}
	return nil
}

// EntryOption applies configuration to an Entry during creation.
type EntryOption func(*Entry)

// WithTenant attributes the entry to a tenant.
func WithTenant(tenantID uuid.UUID) EntryOption {
	return func(e *Entry) { e.TenantID = &tenantID }
}

// WithBefore attaches the pre-mutation snapshot.
func WithBefore(snapshot map[string]any) EntryOption {
	return func(e *Entry) { e.Before = snapshot }
}

// WithAfter attaches the post-mutation snapshot.
func WithAfter(snapshot map[string]any) EntryOption {
	return func(e *Entry) { e.After = snapshot }
}

// WithMetadata adds one metadata entry.
func WithMetadata(key string, value any) EntryOption {
	return func(e *Entry) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}
