package eventbus

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestNewEnvelopeWireFormat(t *testing.T) {
	env := NewEnvelope("order-service", "order_created", map[string]any{"order_id": "o1"})

	if _, err := uuid.Parse(env.EventID); err != nil {
		t.Errorf("event id %q is not a UUID: %v", env.EventID, err)
	}
	if env.Timestamp == 0 {
		t.Error("timestamp not stamped")
	}

	body, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"event_id", "event_type", "timestamp", "service", "payload"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("wire format missing %q", key)
		}
	}
	if raw["event_type"] != "order_created" || raw["service"] != "order-service" {
		t.Errorf("unexpected wire values: %v", raw)
	}
}
