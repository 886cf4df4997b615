package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"dinesync/internal/shared/config"
	"dinesync/internal/shared/logger"
)

// ErrTransport is returned once the broker stayed unreachable for the whole
// retry budget. It is fatal to the attempted operation, never to the process.
var ErrTransport = errors.New("eventbus: broker unreachable after retry budget")

const (
	maxConnectAttempts = 5
	dialTimeout        = 10 * time.Second
)

// DialFunc opens a single AMQP connection attempt.
type DialFunc func(url string) (*amqp.Connection, error)

// Client owns the broker address and a service identity, and knows how to
// establish connections with bounded exponential backoff. Publisher and
// Consumer both build on it.
type Client struct {
	url     string
	service string
	logger  *logger.Logger

	// injectable for tests
	dial  DialFunc
	sleep func(time.Duration)
}

// NewClient builds a client for the given service identity.
func NewClient(cfg *config.Config, service string, log *logger.Logger) *Client {
	return &Client{
		url:     cfg.AMQPURL(),
		service: service,
		logger:  log,
		dial: func(url string) (*amqp.Connection, error) {
			return amqp.DialConfig(url, amqp.Config{
				Heartbeat: 10 * time.Second,
				Locale:    "en_US",
				Dial:      amqp.DefaultDial(dialTimeout),
			})
		},
		sleep: time.Sleep,
	}
}

// Service returns the service identity this client publishes and consumes as.
func (c *Client) Service() string { return c.service }

// Connect dials the broker, sleeping 2^attempt seconds after each failed
// attempt (2, 4, 8, 16, 32), and gives up with ErrTransport after
// maxConnectAttempts. The loop blocks the caller; there is no cancellation
// mid-backoff.
func (c *Client) Connect(ctx context.Context) (*amqp.Connection, error) {
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		conn, err := c.dial(c.url)
		if err == nil {
			c.logger.Debug(ctx, "rabbitmq_connected", "connected to RabbitMQ", nil)
			return conn, nil
		}

		wait := time.Duration(1<<attempt) * time.Second
		c.logger.Error(ctx, "rabbitmq_connect_failed",
			fmt.Sprintf("connect attempt %d/%d failed, retrying in %s", attempt, maxConnectAttempts, wait), err)
		c.sleep(wait)
	}

	return nil, ErrTransport
}

// declareExchange ensures the shared durable topic exchange exists.
func declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil)
}

// QueueName derives the durable queue name for a service from the set of
// event types it subscribes to. Types are sorted so the name is a function of
// the set, and repeated startups rebind the same queue instead of leaking new
// ones.
func QueueName(service string, eventTypes []string) string {
	types := append([]string(nil), eventTypes...)
	sort.Strings(types)
	return service + "-" + strings.Join(types, "-")
}
