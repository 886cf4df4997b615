package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeName is the shared topic exchange every service publishes to and
// consumes from.
const ExchangeName = "restaurant_events"

// Envelope is the wire format wrapped around every message on the bus.
type Envelope struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Timestamp int64          `json:"timestamp"` // unix seconds
	Service   string         `json:"service"`   // publishing service
	Payload   map[string]any `json:"payload"`
}

// NewEnvelope stamps a payload with a fresh event id, the current time, and
// the publishing service's identity.
func NewEnvelope(service, eventType string, payload map[string]any) Envelope {
	return Envelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().Unix(),
		Service:   service,
		Payload:   payload,
	}
}
