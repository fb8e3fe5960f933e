package memory

import (
	"context"
	"sync"

	"github.com/sk1972-mend/mendinsurance/internal/eventing"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
	statusFailed  = "failed"
)

type record struct {
	id        string
	env       eventing.Envelope
	status    string
	attempts  int
	lastError string
}

// OutboxStore is an in-memory outbox for tests and the in-memory wiring.
type OutboxStore struct {
	mu          sync.RWMutex
	records     []*record
	byID        map[string]*record
	byEvent     map[string]*record
	maxAttempts int
}

// Option configures the store.
type Option func(*OutboxStore)

// WithMaxAttempts sets the delivery attempts before a record is parked.
func WithMaxAttempts(n int) Option {
	return func(s *OutboxStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewOutboxStore constructs an empty store.
func NewOutboxStore(opts ...Option) *OutboxStore {
	s := &OutboxStore{
		byID:        make(map[string]*record),
		byEvent:     make(map[string]*record),
		maxAttempts: eventing.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert appends an envelope. A repeated event id returns the existing
// record id.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byEvent[env.EventID]; ok {
		return existing.id, nil
	}
	rec := &record{id: eventing.NewEventID(), env: env, status: statusPending}
	s.records = append(s.records, rec)
	s.byID[rec.id] = rec
	s.byEvent[env.EventID] = rec
	return rec.id, nil
}

// ListPending returns pending records in insertion order.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	_ = ctx
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []eventing.OutboxRecord
	for _, rec := range s.records {
		if rec.status != statusPending {
			continue
		}
		out = append(out, eventing.OutboxRecord{ID: rec.id, Envelope: rec.env, Attempts: rec.attempts})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkSent marks a record delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byID[id]; ok {
		rec.status = statusSent
	}
	return nil
}

// MarkFailed counts a failed delivery and parks the record once it has
// used its attempts.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string, cause error) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil
	}
	rec.attempts++
	if cause != nil {
		rec.lastError = cause.Error()
	}
	if rec.attempts >= s.maxAttempts {
		rec.status = statusFailed
	}
	return nil
}

// Envelopes returns every stored envelope of eventType, or all when empty.
func (s *OutboxStore) Envelopes(eventType string) []eventing.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []eventing.Envelope
	for _, rec := range s.records {
		if eventType == "" || rec.env.EventType == eventType {
			out = append(out, rec.env)
		}
	}
	return out
}

// Failed returns the last error of every parked record keyed by event id.
func (s *OutboxStore) Failed() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for _, rec := range s.records {
		if rec.status == statusFailed {
			out[rec.env.EventID] = rec.lastError
		}
	}
	return out
}
