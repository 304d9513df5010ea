package billing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/billingkit/pkg/pg"
)

// PGStore is the PostgreSQL-backed Store. Idempotency rests on the
// unique index over external_id: concurrent deliveries of the same
// provider event race on the insert and all but one get a duplicate-key
// error.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a Store backed by the given connection pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	if db == nil {
		panic("billing: db pool is required")
	}
	return &PGStore{db: db}
}

const eventColumns = `id, external_id, event_type, payload, processed, terminal,
	processing_error, attempts, received_at, processed_at, last_attempt_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	err := row.Scan(&ev.ID, &ev.ExternalID, &ev.Type, &ev.Payload, &ev.Processed,
		&ev.Terminal, &ev.ProcessingError, &ev.Attempts, &ev.ReceivedAt,
		&ev.ProcessedAt, &ev.LastAttemptAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *PGStore) Create(ctx context.Context, ev *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO billing_events (id, external_id, event_type, payload, processed,
			terminal, processing_error, attempts, received_at, processed_at, last_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ev.ID, ev.ExternalID, ev.Type, ev.Payload, ev.Processed, ev.Terminal,
		ev.ProcessingError, ev.Attempts, ev.ReceivedAt, ev.ProcessedAt, ev.LastAttemptAt)
	if pg.IsDuplicateKeyError(err) {
		return ErrDuplicateEvent
	}
	return err
}

func (s *PGStore) GetByExternalID(ctx context.Context, externalID string) (*Event, error) {
	ev, err := scanEvent(s.db.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM billing_events
		WHERE external_id = $1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return ev, err
}

func (s *PGStore) Update(ctx context.Context, ev *Event) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE billing_events SET processed = $2, terminal = $3, processing_error = $4,
			attempts = $5, processed_at = $6, last_attempt_at = $7
		WHERE external_id = $1`,
		ev.ExternalID, ev.Processed, ev.Terminal, ev.ProcessingError,
		ev.Attempts, ev.ProcessedAt, ev.LastAttemptAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *PGStore) ListRetryable(ctx context.Context, cutoff time.Time, limit int) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM billing_events
		WHERE NOT processed AND NOT terminal AND received_at < $1
		ORDER BY received_at
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}
