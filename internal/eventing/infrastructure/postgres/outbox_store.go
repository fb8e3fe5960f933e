package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/sk1972-mend/mendinsurance/internal/eventing"
)

// OutboxStore keeps claim events in the event_outbox table until they are
// delivered.
type OutboxStore struct {
	db          *sql.DB
	maxAttempts int
	now         func() time.Time
}

// Option configures the store.
type Option func(*OutboxStore)

// WithMaxAttempts sets the delivery attempts before a record is parked as
// failed.
func WithMaxAttempts(n int) Option {
	return func(s *OutboxStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore(db *sql.DB, opts ...Option) *OutboxStore {
	s := &OutboxStore{
		db:          db,
		maxAttempts: eventing.DefaultMaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errNilDB = errors.New("outbox store: nil db")

// Insert stores an envelope as pending. A repeated event id keeps the first
// record and returns its id.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if s == nil || s.db == nil {
		return "", errNilDB
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	var id string
	err = s.db.QueryRowContext(ctx, `
WITH inserted AS (
	INSERT INTO event_outbox (id, event_id, event_type, aggregate_id, correlation_id, occurred_at, payload)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (event_id) DO NOTHING
	RETURNING id
)
SELECT id FROM inserted
UNION ALL
SELECT id FROM event_outbox WHERE event_id = $2
LIMIT 1`,
		eventing.NewEventID(), env.EventID, env.EventType, env.AggregateID, env.CorrelationID, env.OccurredAt, payload,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListPending returns pending records, oldest first.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, payload, attempts
FROM event_outbox
WHERE status = 'pending'
ORDER BY created_at, id
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eventing.OutboxRecord
	for rows.Next() {
		var (
			record  eventing.OutboxRecord
			payload []byte
		)
		if err := rows.Scan(&record.ID, &payload, &record.Attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &record.Envelope); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// MarkSent marks a record delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errNilDB
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE event_outbox SET status = 'sent', sent_at = $2
WHERE id = $1 AND status = 'pending'`, id, s.now())
	return err
}

// MarkFailed counts a failed delivery and parks the record as failed once
// it has used its attempts.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string, cause error) error {
	if s == nil || s.db == nil {
		return errNilDB
	}
	var reason sql.NullString
	if cause != nil {
		reason = sql.NullString{String: cause.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE event_outbox
SET attempts = attempts + 1,
    last_error = $2,
    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
WHERE id = $1 AND status = 'pending'`, id, reason, s.maxAttempts)
	return err
}

// CountPending returns the number of undelivered records.
func (s *OutboxStore) CountPending(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errNilDB
	}
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_outbox WHERE status = 'pending'`).Scan(&count)
	return count, err
}
