package eventing

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"
)

// Envelope is the stored and delivered form of an event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	AggregateID   string          `json:"aggregate_id"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Meta overrides envelope fields at publish time.
type Meta struct {
	EventID       string
	OccurredAt    time.Time
	CorrelationID string
	AggregateID   string
	SchemaVersion int
}

// Keyed events name the aggregate they belong to.
type Keyed interface {
	AggregateKey() string
}

// Stamped events carry their own occurrence time.
type Stamped interface {
	EventTime() time.Time
}

// BuildEnvelope serializes event and fills envelope defaults: the aggregate
// and time come from the event when it implements Keyed or Stamped, the
// correlation id falls back to the event id.
func BuildEnvelope(event any, meta Meta) (Envelope, error) {
	if event == nil {
		return Envelope{}, errors.New("eventing: nil event")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{
		EventID:       meta.EventID,
		EventType:     TypeName(event),
		OccurredAt:    meta.OccurredAt,
		CorrelationID: meta.CorrelationID,
		AggregateID:   meta.AggregateID,
		SchemaVersion: meta.SchemaVersion,
		Payload:       payload,
	}
	if keyed, ok := event.(Keyed); ok && env.AggregateID == "" {
		env.AggregateID = keyed.AggregateKey()
	}
	if stamped, ok := event.(Stamped); ok && env.OccurredAt.IsZero() {
		env.OccurredAt = stamped.EventTime()
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now()
	}
	env.OccurredAt = env.OccurredAt.UTC()
	if env.EventID == "" {
		env.EventID = NewEventID()
	}
	if env.CorrelationID == "" {
		env.CorrelationID = env.EventID
	}
	if env.SchemaVersion == 0 {
		env.SchemaVersion = 1
	}
	return env, nil
}

// TypeName is the envelope event type: the Go type name without package.
func TypeName(event any) string {
	if event == nil {
		return ""
	}
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
