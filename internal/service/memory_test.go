package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/droidtel/bss/internal/domain"
)

// memOrderRepo is an in-memory OrderRepository with the same revision
// contract as the postgres implementation.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]domain.Order)}
}

func (r *memOrderRepo) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; ok {
		return domain.Conflict("order.create", "Order already exists")
	}
	r.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) Get(_ context.Context, id uuid.UUID) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFound("order.get", "order", id.String())
	}
	return order, nil
}

func (r *memOrderRepo) GetByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return domain.Order{}, domain.NotFound("order.getByNumber", "order", orderNumber)
}

func (r *memOrderRepo) Update(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.NotFound("order.update", "order", order.ID.String())
	}
	if stored.Revision != order.Revision-1 {
		return domain.Conflict("order.update", "Order was modified concurrently")
	}
	r.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			out = append(out, order)
		}
	}
	return out, nil
}

// memSubscriptionRepo mirrors memOrderRepo for subscriptions.
type memSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[uuid.UUID]domain.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: make(map[uuid.UUID]domain.Subscription)}
}

func (r *memSubscriptionRepo) Create(_ context.Context, sub domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.ID]; ok {
		return domain.Conflict("subscription.create", "Subscription already exists")
	}
	r.subs[sub.ID] = sub
	return nil
}

func (r *memSubscriptionRepo) Get(_ context.Context, id uuid.UUID) (domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return domain.Subscription{}, domain.NotFound("subscription.get", "subscription", id.String())
	}
	return sub, nil
}

func (r *memSubscriptionRepo) GetByNumber(_ context.Context, subscriptionNumber string) (domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.SubscriptionNumber == subscriptionNumber {
			return sub, nil
		}
	}
	return domain.Subscription{}, domain.NotFound("subscription.getByNumber", "subscription", subscriptionNumber)
}

func (r *memSubscriptionRepo) Update(_ context.Context, sub domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.subs[sub.ID]
	if !ok {
		return domain.NotFound("subscription.update", "subscription", sub.ID.String())
	}
	if stored.Revision != sub.Revision-1 {
		return domain.Conflict("subscription.update", "Subscription was modified concurrently")
	}
	r.subs[sub.ID] = sub
	return nil
}

func (r *memSubscriptionRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Subscription
	for _, sub := range r.subs {
		if sub.CustomerID == customerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) ListDueForRenewal(_ context.Context, asOf time.Time, includePastDue bool) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Subscription
	for _, sub := range r.subs {
		if !sub.IsActive() || !sub.AutoRenew {
			continue
		}
		if sub.IsDueForRenewal(asOf) || (includePastDue && sub.IsPastBillingDate(asOf)) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// capturingPublisher records every published event for assertions.
type capturingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *capturingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *capturingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}
