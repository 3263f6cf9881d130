package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/events"
	"github.com/droidtel/bss/internal/telemetry"
)

// SubscriptionService provides the use-case surface for subscription
// lifecycle operations, including the billing-date driven renewal used by the
// background worker.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (domain.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error)
	GetSubscriptionByNumber(ctx context.Context, subscriptionNumber string) (domain.Subscription, error)
	ListSubscriptionsByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Subscription, error)

	SuspendSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error)
	ResumeSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error)
	ExpireSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error)

	UpdateSubscriptionPrice(ctx context.Context, subscriptionID uuid.UUID, price decimal.Decimal) (domain.Subscription, error)
	UpdateSubscriptionDiscount(ctx context.Context, subscriptionID uuid.UUID, discount decimal.Decimal) (domain.Subscription, error)
	UpdateAutoRenew(ctx context.Context, subscriptionID uuid.UUID, autoRenew bool) (domain.Subscription, error)
	MarkRenewalNoticeSent(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error)

	RenewSubscription(ctx context.Context, subscriptionID uuid.UUID, asOf time.Time) (domain.Subscription, error)
	ListDueForRenewal(ctx context.Context, asOf time.Time, includePastDue bool) ([]domain.Subscription, error)
}

// CreateSubscriptionParams carries the inputs for CreateSubscription.
type CreateSubscriptionParams struct {
	SubscriptionNumber string    `validate:"required,max=50"`
	CustomerID         uuid.UUID `validate:"required"`
	ProductID          uuid.UUID `validate:"required"`
	OrderID            *uuid.UUID
	StartDate          time.Time       `validate:"required"`
	BillingPeriod      string          `validate:"required"`
	Price              decimal.Decimal `validate:"-"`
	Currency           string          `validate:"omitempty,len=3"`
	DiscountAmount     decimal.Decimal `validate:"-"`
	Configuration      map[string]any
	AutoRenew          bool
}

type subscriptionService struct {
	repo      SubscriptionRepository
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService instance.
func NewSubscriptionService(repo SubscriptionRepository, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "subscription_service").Logger(),
	}
}

// CreateSubscription builds the subscription aggregate and persists it.
func (s *subscriptionService) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (domain.Subscription, error) {
	const op = "subscription.create"

	if err := s.validate.Struct(params); err != nil {
		return domain.Subscription{}, domain.WrapError(err, domain.EINVALID, op, "invalid subscription request")
	}

	sub, err := domain.NewSubscription(domain.SubscriptionParams{
		SubscriptionNumber: params.SubscriptionNumber,
		CustomerID:         params.CustomerID,
		ProductID:          params.ProductID,
		OrderID:            params.OrderID,
		StartDate:          params.StartDate,
		BillingPeriod:      params.BillingPeriod,
		Price:              params.Price,
		Currency:           params.Currency,
		DiscountAmount:     params.DiscountAmount,
		Configuration:      params.Configuration,
		AutoRenew:          params.AutoRenew,
	})
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return domain.Subscription{}, err
	}

	if s.metrics != nil {
		s.metrics.SubscriptionsCreated.WithLabelValues(string(sub.BillingPeriod)).Inc()
	}
	s.publishSubscriptionEvent(ctx, events.SubjectSubscriptionCreated, sub)

	s.logger.Info().
		Str("subscription_id", sub.ID.String()).
		Str("subscription_number", sub.SubscriptionNumber).
		Str("next_billing_date", sub.NextBillingDate.Format("2006-01-02")).
		Msg("subscription created")

	return sub, nil
}

// GetSubscription retrieves a single subscription by ID.
func (s *subscriptionService) GetSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error) {
	return s.repo.Get(ctx, subscriptionID)
}

// GetSubscriptionByNumber retrieves a subscription by its number.
func (s *subscriptionService) GetSubscriptionByNumber(ctx context.Context, subscriptionNumber string) (domain.Subscription, error) {
	return s.repo.GetByNumber(ctx, subscriptionNumber)
}

// ListSubscriptionsByCustomer returns all subscriptions for a customer.
func (s *subscriptionService) ListSubscriptionsByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Subscription, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// SuspendSubscription pauses an active subscription.
func (s *subscriptionService) SuspendSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, domain.Subscription.Suspend, events.SubjectSubscriptionSuspended, func() {
		if s.metrics != nil {
			s.metrics.SubscriptionsSuspended.Inc()
		}
	})
}

// ResumeSubscription reactivates a suspended subscription.
func (s *subscriptionService) ResumeSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, domain.Subscription.Resume, events.SubjectSubscriptionResumed, func() {
		if s.metrics != nil {
			s.metrics.SubscriptionsResumed.Inc()
		}
	})
}

// CancelSubscription terminates the subscription permanently.
func (s *subscriptionService) CancelSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, domain.Subscription.Cancel, events.SubjectSubscriptionCancelled, func() {
		if s.metrics != nil {
			s.metrics.SubscriptionsCancelled.Inc()
		}
	})
}

// ExpireSubscription marks the subscription as expired.
func (s *subscriptionService) ExpireSubscription(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, domain.Subscription.Expire, events.SubjectSubscriptionExpired, func() {
		if s.metrics != nil {
			s.metrics.SubscriptionsExpired.Inc()
		}
	})
}

// UpdateSubscriptionPrice sets a new recurring price.
func (s *subscriptionService) UpdateSubscriptionPrice(ctx context.Context, subscriptionID uuid.UUID, price decimal.Decimal) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, func(sub domain.Subscription) (domain.Subscription, error) {
		return sub.UpdatePrice(price)
	}, "", nil)
}

// UpdateSubscriptionDiscount sets a new recurring discount.
func (s *subscriptionService) UpdateSubscriptionDiscount(ctx context.Context, subscriptionID uuid.UUID, discount decimal.Decimal) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, func(sub domain.Subscription) (domain.Subscription, error) {
		return sub.UpdateDiscount(discount)
	}, "", nil)
}

// UpdateAutoRenew toggles automatic renewal.
func (s *subscriptionService) UpdateAutoRenew(ctx context.Context, subscriptionID uuid.UUID, autoRenew bool) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, func(sub domain.Subscription) (domain.Subscription, error) {
		return sub.UpdateAutoRenew(autoRenew), nil
	}, "", nil)
}

// MarkRenewalNoticeSent records that the upcoming-renewal notice went out.
func (s *subscriptionService) MarkRenewalNoticeSent(ctx context.Context, subscriptionID uuid.UUID) (domain.Subscription, error) {
	return s.mutate(ctx, subscriptionID, func(sub domain.Subscription) (domain.Subscription, error) {
		return sub.MarkRenewalNoticeSent(), nil
	}, "", nil)
}

// RenewSubscription advances the billing window by one period. The renewal is
// rejected before the next billing date and for subscriptions without
// auto-renew.
func (s *subscriptionService) RenewSubscription(ctx context.Context, subscriptionID uuid.UUID, asOf time.Time) (domain.Subscription, error) {
	sub, err := s.repo.Get(ctx, subscriptionID)
	if err != nil {
		return domain.Subscription{}, err
	}

	next, err := sub.Renew(asOf)
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Subscription{}, err
	}

	if s.metrics != nil {
		s.metrics.SubscriptionRenewals.WithLabelValues(string(next.BillingPeriod)).Inc()
	}
	s.publishSubscriptionEvent(ctx, events.SubjectSubscriptionRenewed, next)

	s.logger.Info().
		Str("subscription_id", next.ID.String()).
		Str("next_billing_date", next.NextBillingDate.Format("2006-01-02")).
		Msg("subscription renewed")

	return next, nil
}

// ListDueForRenewal surfaces the repository query for the renewal worker.
func (s *subscriptionService) ListDueForRenewal(ctx context.Context, asOf time.Time, includePastDue bool) ([]domain.Subscription, error) {
	return s.repo.ListDueForRenewal(ctx, asOf, includePastDue)
}

// mutate runs the load-mutate-store cycle shared by the lifecycle operations.
// An empty subject suppresses event publication.
func (s *subscriptionService) mutate(
	ctx context.Context,
	subscriptionID uuid.UUID,
	fn func(domain.Subscription) (domain.Subscription, error),
	subject string,
	record func(),
) (domain.Subscription, error) {
	sub, err := s.repo.Get(ctx, subscriptionID)
	if err != nil {
		return domain.Subscription{}, err
	}

	next, err := fn(sub)
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Subscription{}, err
	}

	if record != nil {
		record()
	}
	if subject != "" {
		s.publishSubscriptionEvent(ctx, subject, next)
	}

	return next, nil
}

func (s *subscriptionService) publishSubscriptionEvent(ctx context.Context, subject string, sub domain.Subscription) {
	event := events.SubscriptionEvent{
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		CustomerID:         sub.CustomerID,
		ProductID:          sub.ProductID,
		Status:             string(sub.Status),
		NextBillingDate:    sub.NextBillingDate.Format("2006-01-02"),
		Revision:           sub.Revision,
		OccurredAt:         time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}
