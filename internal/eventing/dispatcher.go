package eventing

import (
	"context"

	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds delivery retries of one outbox record.
const DefaultMaxAttempts = 5

// EventBus is the minimal publish interface.
type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// OutboxStore provides access to outbox records. MarkFailed records a
// failed delivery; the record stays pending until its attempts reach the
// store's limit.
type OutboxStore interface {
	OutboxWriter
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// OutboxRecord is a pending outbox entry.
type OutboxRecord struct {
	ID       string
	Envelope Envelope
	Attempts int
}

// Dispatcher delivers pending outbox records to the in-process bus.
type Dispatcher struct {
	bus      EventBus
	outbox   OutboxStore
	registry *Registry
	logger   *zap.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(bus EventBus, outbox OutboxStore, registry *Registry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{bus: bus, outbox: outbox, registry: registry, logger: logger}
}

// Dispatch delivers up to limit pending records. A failed delivery is
// recorded on its record and does not stop the batch; only a failed listing
// is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int) error {
	if d == nil || d.outbox == nil || d.bus == nil || d.registry == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := d.outbox.ListPending(ctx, limit)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := d.deliver(ctx, record.Envelope); err != nil {
			d.logger.Warn("outbox delivery failed",
				zap.String("event_id", record.Envelope.EventID),
				zap.String("event_type", record.Envelope.EventType),
				zap.Int("attempt", record.Attempts+1),
				zap.Error(err))
			if markErr := d.outbox.MarkFailed(ctx, record.ID, err); markErr != nil {
				d.logger.Error("outbox mark failed", zap.String("id", record.ID), zap.Error(markErr))
			}
			continue
		}
		if err := d.outbox.MarkSent(ctx, record.ID); err != nil {
			d.logger.Error("outbox mark sent", zap.String("id", record.ID), zap.Error(err))
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, env Envelope) error {
	payload, err := d.registry.DecodePayload(env)
	if err != nil {
		return err
	}
	return d.bus.Publish(WithEnvelope(ctx, env), payload)
}
