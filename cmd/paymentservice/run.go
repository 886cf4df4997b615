package paymentservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	service "dinesync/internal/app/paymentservice"
	"dinesync/internal/shared/config"
	"dinesync/internal/shared/eventbus"
	"dinesync/internal/shared/httpclient"
	"dinesync/internal/shared/logger"
	pg "dinesync/internal/shared/postgres"
)

// Run wires the payment service and blocks until ctx is cancelled.
func Run(ctx context.Context, port int) error {
	log := logger.New("payment-service")

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
	repo := pg.NewPaymentsRepo()
	orderAPI := httpclient.NewOrderClient(cfg.Services.OrderURL)

	busClient := eventbus.NewClient(cfg, "payment-service", log)
	publisher := eventbus.NewPublisher(busClient, log)

	svc := service.New(uow, repo, orderAPI, publisher, log)

	h := service.NewHTTPHandler(svc, log, cfg.Auth.PaymentTokenTTL)
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
		fmt.Sprintf("Payment Service started on port %d", port),
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
