package orderservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	service "dinesync/internal/app/orderservice"
	"dinesync/internal/shared/config"
	"dinesync/internal/shared/eventbus"
	"dinesync/internal/shared/httpclient"
	"dinesync/internal/shared/logger"
	pg "dinesync/internal/shared/postgres"
)

// Run wires the order service and blocks until ctx is cancelled.
// It returns the first terminal error (server or startup failure).
func Run(ctx context.Context, port int, maxConcurrent int) error {
	log := logger.New("order-service")

	cfg, err := config.Load("config")
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	pool, err := pg.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err)
		return err
	}
	defer pool.Close()
	log.Info(ctx, "db_connected", "Connected to PostgreSQL database", nil)

	uow := pg.NewUnitOfWork(pool)
	repo := pg.NewOrdersRepo()
	menu := httpclient.NewMenuClient(cfg.Services.MenuURL)

	busClient := eventbus.NewClient(cfg, "order-service", log)
	publisher := eventbus.NewPublisher(busClient, log)

	svc := service.New(uow, repo, menu, publisher, log)

	// consumer side: payment reconciliation and menu availability changes
	registry := eventbus.NewRegistry()
	svc.RegisterEventHandlers(registry)
	consumer := eventbus.NewConsumer(busClient, registry, log)
	consumer.Subscribe(ctx, registry.EventTypes())

	h := service.NewHTTPHandler(svc, log, cfg.Auth.OrderTokenTTL)
	mux := http.NewServeMux()
	h.Register(mux)

	// Concurrency limiter (global): blocks when capacity is full.
	handler := withConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Order Service started on port %d", port),
		map[string]any{"port": port, "max_concurrent": maxConcurrent},
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

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It blocks until capacity is available, providing natural backpressure.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sem <- struct{}{}        // acquire
		defer func() { <-sem }() // release
		next.ServeHTTP(w, r)
	})
}
