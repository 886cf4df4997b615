package notificationservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	service "dinesync/internal/app/notificationservice"
	"dinesync/internal/shared/config"
	"dinesync/internal/shared/eventbus"
	"dinesync/internal/shared/logger"
)

// Run wires the notification service and blocks until ctx is cancelled.
// This service keeps no database; device registrations live in memory.
func Run(ctx context.Context, port int) error {
	log := logger.New("notification-service")

	cfg, err := config.Load("config")
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	registry := service.NewDeviceRegistry()
	emitter := service.NewLogEmitter(log)
	svc := service.New(registry, emitter, log)

	busClient := eventbus.NewClient(cfg, "notification-service", log)
	handlerRegistry := eventbus.NewRegistry()
	svc.RegisterEventHandlers(handlerRegistry)
	consumer := eventbus.NewConsumer(busClient, handlerRegistry, log)
	consumer.Subscribe(ctx, handlerRegistry.EventTypes())

	h := service.NewHTTPHandler(svc, registry, log)
	mux := http.NewServeMux()
	h.Register(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Notification Service started on port %d", port),
		map[string]any{"port": port},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
