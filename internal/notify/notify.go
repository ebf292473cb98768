// Package notify delivers fire-and-forget domain events to external systems.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	applog "larder/internal/log"
)

// Event is the envelope handed to a sink. Payload is marshalled as JSON.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// NewEvent stamps a fresh identifier and timestamp on an event.
func NewEvent(eventType, key string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Encode returns the wire form of the event.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// LogSink writes events to the application log. Used when no broker is configured.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, event Event) error {
	body, err := event.Encode()
	if err != nil {
		return err
	}
	applog.Info(ctx, "event emitted", "type", event.Type, "key", event.Key, "id", event.ID, "size", len(body))
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) error { return nil }
