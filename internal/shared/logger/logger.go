package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a service-scoped structured logger. Every line carries the
// service name, hostname, an action tag, and the request id from the context
// so a single flow can be traced across HTTP and message-bus hops.
type Logger struct {
	log zerolog.Logger
}

// New creates a logger for the named service, writing JSON lines to stdout.
func New(service string) *Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	zl := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Logger()

	return &Logger{log: zl}
}

// SetLevel applies the configured minimum level ("debug", "info", ...).
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Define an unexported type for context keys.
type ctxKey string

// requestIDKey is the context key for the request ID.
const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying a request id (useful for HTTP/mq hops).
func (logger *Logger) WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// requestIDFrom returns a value saved in the context.
func requestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (logger *Logger) event(ctx context.Context, ev *zerolog.Event, action string, details map[string]any) *zerolog.Event {
	ev = ev.Str("action", action)
	if rid := requestIDFrom(ctx); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if details != nil {
		ev = ev.Fields(details)
	}
	return ev
}

// -- Logger helper functions --

func (logger *Logger) Info(ctx context.Context, action, msg string, details map[string]any) {
	logger.event(ctx, logger.log.Info(), action, details).Msg(msg)
}

func (logger *Logger) Debug(ctx context.Context, action, msg string, details map[string]any) {
	logger.event(ctx, logger.log.Debug(), action, details).Msg(msg)
}

func (logger *Logger) Error(ctx context.Context, action, msg string, err error) {
	logger.event(ctx, logger.log.Error().Err(err), action, nil).Msg(msg)
}
