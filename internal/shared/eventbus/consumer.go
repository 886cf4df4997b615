package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"dinesync/internal/shared/logger"
)

// reconnectPause is the coarse recovery delay after a transport-level failure
// while consuming. It is independent of the finer exponential backoff inside
// Connect, which wraps each reconnection attempt.
const reconnectPause = 5 * time.Second

// Delivery abstracts one inbound message so dispatch can be exercised
// without a broker.
type Delivery interface {
	Body() []byte
	Ack() error
	Reject(requeue bool) error
}

type amqpDelivery struct{ d amqp.Delivery }

func (a amqpDelivery) Body() []byte              { return a.d.Body }
func (a amqpDelivery) Ack() error                { return a.d.Ack(false) }
func (a amqpDelivery) Reject(requeue bool) error { return a.d.Reject(requeue) }

// Consumer binds a durable per-service queue to the event types a service
// cares about and dispatches deliveries to the registry's handlers.
type Consumer struct {
	client   *Client
	registry *Registry
	logger   *logger.Logger
}

// NewConsumer builds a consumer over the client and registry.
func NewConsumer(client *Client, registry *Registry, log *logger.Logger) *Consumer {
	return &Consumer{client: client, registry: registry, logger: log}
}

// Subscribe starts exactly one background goroutine consuming the given event
// types. It runs until ctx is cancelled; there is no unsubscribe.
func (c *Consumer) Subscribe(ctx context.Context, eventTypes []string) {
	go c.run(ctx, eventTypes)
}

// run cycles between Disconnected and Consuming until ctx is done.
func (c *Consumer) run(ctx context.Context, eventTypes []string) {
	queue := QueueName(c.client.Service(), eventTypes)

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.client.Connect(ctx)
		if err != nil {
			c.logger.Error(ctx, "consumer_connect_failed", "consumer could not reach broker", err)
			if !sleepWithContext(ctx, reconnectPause) {
				return
			}
			continue
		}

		c.consume(ctx, conn, queue, eventTypes)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		if !sleepWithContext(ctx, reconnectPause) {
			return
		}
	}
}

// consume declares topology, binds the queue, and blocks dispatching
// deliveries until the channel dies or ctx is cancelled.
func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, queue string, eventTypes []string) {
	ch, err := conn.Channel()
	if err != nil {
		c.logger.Error(ctx, "consumer_channel_failed", "failed to open channel", err)
		return
	}
	defer ch.Close()

	if err := declareExchange(ch); err != nil {
		c.logger.Error(ctx, "consumer_declare_failed", "failed to declare exchange", err)
		return
	}

	// durable, non-exclusive, not auto-deleted: survives restarts and rebinds
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		c.logger.Error(ctx, "consumer_declare_failed", "failed to declare queue", err)
		return
	}
	for _, eventType := range eventTypes {
		if err := ch.QueueBind(queue, eventType, ExchangeName, false, nil); err != nil {
			c.logger.Error(ctx, "consumer_bind_failed",
				fmt.Sprintf("failed to bind %s", eventType), err)
			return
		}
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		c.logger.Error(ctx, "consumer_consume_failed", "failed to start consuming", err)
		return
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	c.logger.Info(ctx, "consumer_ready", "consuming events", map[string]any{
		"queue":       queue,
		"event_types": eventTypes,
	})

	for {
		select {
		case <-ctx.Done():
			return

		case amqpErr := <-closed:
			if amqpErr != nil {
				c.logger.Error(ctx, "consumer_channel_closed", "consumer channel closed", amqpErr)
			} else {
				c.logger.Error(ctx, "consumer_channel_closed", "consumer channel closed", errors.New("unknown channel close"))
			}
			return

		case d, ok := <-deliveries:
			if !ok {
				c.logger.Error(ctx, "consumer_deliveries_closed", "deliveries channel closed", errors.New("deliveries channel closed"))
				return
			}
			c.dispatch(ctx, amqpDelivery{d})
		}
	}
}

// dispatch parses the envelope and runs every registered handler for its
// event type. A body that fails to parse is rejected without requeue and runs
// zero handlers. Handler failures are logged and isolated from siblings; the
// message is acknowledged regardless, so redelivery only ever covers
// transport or parse failures, never handler logic.
func (c *Consumer) dispatch(ctx context.Context, d Delivery) {
	var env Envelope
	if err := json.Unmarshal(d.Body(), &env); err != nil {
		c.logger.Error(ctx, "event_decode_failed", "dropping undecodable message", err)
		if rejErr := d.Reject(false); rejErr != nil {
			c.logger.Error(ctx, "event_reject_failed", "failed to reject message", rejErr)
		}
		return
	}

	c.logger.Debug(ctx, "event_received", fmt.Sprintf("received %s", env.EventType), map[string]any{
		"event_id":   env.EventID,
		"event_type": env.EventType,
		"source":     env.Service,
	})

	for _, h := range c.registry.Handlers(env.EventType) {
		c.invoke(ctx, env, h)
	}

	if err := d.Ack(); err != nil {
		c.logger.Error(ctx, "event_ack_failed", "failed to ack message", err)
	}
}

// invoke runs one handler, containing its error or panic.
func (c *Consumer) invoke(ctx context.Context, env Envelope, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(ctx, "event_handler_panic",
				fmt.Sprintf("handler for %s panicked", env.EventType), fmt.Errorf("panic: %v", r))
		}
	}()

	if err := h(ctx, env.Payload); err != nil {
		c.logger.Error(ctx, "event_handler_failed",
			fmt.Sprintf("handler for %s failed", env.EventType), err)
	}
}

// sleepWithContext sleeps for the given duration or returns early if ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
