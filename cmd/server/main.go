package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/droidtel/bss/internal"
	"github.com/droidtel/bss/internal/events"
	"github.com/droidtel/bss/internal/handler"
	"github.com/droidtel/bss/internal/postgres"
	"github.com/droidtel/bss/internal/service"
	"github.com/droidtel/bss/internal/telemetry"
	"github.com/droidtel/bss/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := internal.NewConfig()
	if err != nil {
		return err
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	logger.Info().Str("env", cfg.Env).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	logger.Info().Msg("migrations applied")

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var publisher events.Publisher = events.Noop{}
	if cfg.NatsURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NatsURL, logger)
		if err != nil {
			// The engine is useful without an event bus; degrade rather
			// than refuse to start.
			logger.Warn().Err(err).Msg("NATS unavailable, events disabled")
		} else {
			defer nats.Close()
			publisher = nats
		}
	}

	metrics := telemetry.NewBusinessMetrics(prometheus.DefaultRegisterer)

	orders := service.NewOrderService(postgres.NewOrderRepository(pool), publisher, metrics, logger)
	subscriptions := service.NewSubscriptionService(postgres.NewSubscriptionRepository(pool), publisher, metrics, logger)

	renewals := worker.NewRenewalWorker(subscriptions, metrics, worker.Config{
		PollInterval:   cfg.Worker.PollInterval,
		MaxConcurrency: cfg.Worker.MaxConcurrency,
		RenewPastDue:   cfg.Worker.RenewPastDue,
	}, logger)
	go func() {
		if err := renewals.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("renewal worker stopped")
		}
	}()

	e := handler.New(orders, subscriptions, logger).Router()
	addr := fmt.Sprintf(":%d", cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// migrate runs goose migrations over database/sql; the pgx pool takes over
// afterwards for regular traffic.
func migrate(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return internal.RunMigrations(db)
}
