package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/droidtel/bss/internal/domain"
)

// OrderRepository persists order aggregates. Update must enforce optimistic
// concurrency: the stored row is replaced only when its revision equals the
// aggregate's revision minus one, otherwise a domain ECONFLICT error is
// returned. A missing aggregate yields a domain ENOTFOUND error.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	Get(ctx context.Context, id uuid.UUID) (domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	Update(ctx context.Context, order domain.Order) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)
}

// SubscriptionRepository persists subscription aggregates with the same
// optimistic-concurrency contract as OrderRepository.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub domain.Subscription) error
	Get(ctx context.Context, id uuid.UUID) (domain.Subscription, error)
	GetByNumber(ctx context.Context, subscriptionNumber string) (domain.Subscription, error)
	Update(ctx context.Context, sub domain.Subscription) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Subscription, error)

	// ListDueForRenewal returns ACTIVE auto-renew subscriptions whose next
	// billing date is on (or, when includePastDue is set, before) the given
	// date.
	ListDueForRenewal(ctx context.Context, asOf time.Time, includePastDue bool) ([]domain.Subscription, error)
}
