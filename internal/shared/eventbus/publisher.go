package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"dinesync/internal/shared/logger"
)

const publishTimeout = 5 * time.Second

// Publisher sends one event per call over a fresh connection. A failed
// publish is reported as false and never raised, buffered, or retried after
// the connect budget runs out: callers that already committed local state get
// no compensation here. The event-driven reconciliation paths downstream are
// designed around that gap.
type Publisher struct {
	client *Client
	logger *logger.Logger
}

// NewPublisher builds a publisher on top of the client.
func NewPublisher(client *Client, log *logger.Logger) *Publisher {
	return &Publisher{client: client, logger: log}
}

// Publish wraps the payload in an envelope and sends it to the topic exchange
// with the event type as routing key. The message is marked persistent.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload map[string]any) bool {
	conn, err := p.client.Connect(ctx)
	if err != nil {
		p.logger.Error(ctx, "event_publish_failed",
			fmt.Sprintf("failed to publish %s: broker unreachable", eventType), err)
		return false
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Error(ctx, "event_publish_failed", "failed to open channel", err)
		return false
	}
	defer ch.Close()

	if err := declareExchange(ch); err != nil {
		p.logger.Error(ctx, "event_publish_failed", "failed to declare exchange", err)
		return false
	}

	env := NewEnvelope(p.client.Service(), eventType, payload)
	body, err := json.Marshal(env)
	if err != nil {
		p.logger.Error(ctx, "event_publish_failed", "failed to encode envelope", err)
		return false
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(pubCtx,
		ExchangeName, eventType, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
	if err != nil {
		p.logger.Error(ctx, "event_publish_failed",
			fmt.Sprintf("failed to publish %s", eventType), err)
		return false
	}

	p.logger.Debug(ctx, "event_published", fmt.Sprintf("published %s", eventType), map[string]any{
		"event_id":   env.EventID,
		"event_type": eventType,
	})
	return true
}
