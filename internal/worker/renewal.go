// Package worker runs the background subscription renewal loop.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/service"
	"github.com/droidtel/bss/internal/telemetry"
)

// Config tunes the renewal worker.
type Config struct {
	// PollInterval is how often to scan for due subscriptions.
	PollInterval time.Duration

	// MaxConcurrency bounds how many renewals run at once.
	MaxConcurrency int

	// RenewPastDue also picks up subscriptions whose billing date has
	// already passed.
	RenewPastDue bool
}

// RenewalWorker periodically renews subscriptions whose next billing date has
// arrived.
type RenewalWorker struct {
	config        Config
	subscriptions service.SubscriptionService
	metrics       *telemetry.BusinessMetrics
	logger        zerolog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewRenewalWorker creates a renewal worker.
func NewRenewalWorker(subscriptions service.SubscriptionService, metrics *telemetry.BusinessMetrics, config Config, logger zerolog.Logger) *RenewalWorker {
	if config.PollInterval == 0 {
		config.PollInterval = time.Minute
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 5
	}

	return &RenewalWorker{
		config:        config,
		subscriptions: subscriptions,
		metrics:       metrics,
		logger:        logger.With().Str("component", "renewal_worker").Logger(),
		now:           time.Now,
	}
}

// Start runs poll cycles until the context is cancelled. In-flight renewals
// finish before Start returns.
func (w *RenewalWorker) Start(ctx context.Context) error {
	w.logger.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int("max_concurrency", w.config.MaxConcurrency).
		Bool("renew_past_due", w.config.RenewPastDue).
		Msg("renewal worker starting")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("renewal worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single poll cycle: list everything due, renew each with
// bounded concurrency. Failures are logged and counted, never fatal; a
// subscription that fails renewal is retried on the next cycle.
func (w *RenewalWorker) RunOnce(ctx context.Context) {
	asOf := w.now().UTC()

	if w.metrics != nil {
		w.metrics.RenewalRuns.Inc()
	}

	due, err := w.subscriptions.ListDueForRenewal(ctx, asOf, w.config.RenewPastDue)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to list due subscriptions")
		return
	}
	if len(due) == 0 {
		return
	}

	w.logger.Info().Int("count", len(due)).Msg("renewing due subscriptions")

	sem := make(chan struct{}, w.config.MaxConcurrency)
	var wg sync.WaitGroup
	for _, sub := range due {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(sub domain.Subscription) {
			defer wg.Done()
			defer func() { <-sem }()
			w.renew(ctx, sub, asOf)
		}(sub)
	}
	wg.Wait()
}

func (w *RenewalWorker) renew(ctx context.Context, sub domain.Subscription, asOf time.Time) {
	renewed, err := w.subscriptions.RenewSubscription(ctx, sub.ID, asOf)
	if err != nil {
		// A concurrent writer may have renewed or cancelled it between the
		// listing and the renewal. Both resolve themselves on the next cycle.
		if domain.IsCode(err, domain.ECONFLICT) || domain.IsCode(err, domain.ESTATE) {
			w.logger.Debug().Err(err).Str("subscription_id", sub.ID.String()).Msg("renewal skipped")
			return
		}
		if w.metrics != nil {
			w.metrics.RenewalFailures.Inc()
		}
		w.logger.Error().Err(err).Str("subscription_id", sub.ID.String()).Msg("renewal failed")
		return
	}

	w.logger.Info().
		Str("subscription_id", renewed.ID.String()).
		Str("next_billing_date", renewed.NextBillingDate.Format("2006-01-02")).
		Msg("subscription renewed")
}
