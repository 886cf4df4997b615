package eventbus

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"dinesync/internal/shared/logger"
)

// A publish against an unreachable broker burns the whole connect budget and
// reports false; nothing is raised or buffered.
func TestPublishUnreachableBrokerReturnsFalse(t *testing.T) {
	attempts := 0
	client, _ := testClient(func(url string) (*amqp.Connection, error) {
		attempts++
		return nil, errors.New("connection refused")
	})
	p := NewPublisher(client, logger.New("test"))

	ok := p.Publish(context.Background(), "order_created", map[string]any{"order_id": "o1"})
	if ok {
		t.Fatal("Publish reported success with broker down")
	}
	if attempts != 5 {
		t.Errorf("dial attempts = %d, want 5", attempts)
	}
}
