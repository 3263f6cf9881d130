// Package events publishes aggregate lifecycle events for downstream
// consumers (billing, provisioning, analytics).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subjects for published events.
const (
	SubjectOrderCreated       = "bss.order.created"
	SubjectOrderStatusChanged = "bss.order.status_changed"
	SubjectOrderCancelled     = "bss.order.cancelled"

	SubjectSubscriptionCreated   = "bss.subscription.created"
	SubjectSubscriptionSuspended = "bss.subscription.suspended"
	SubjectSubscriptionResumed   = "bss.subscription.resumed"
	SubjectSubscriptionCancelled = "bss.subscription.cancelled"
	SubjectSubscriptionExpired   = "bss.subscription.expired"
	SubjectSubscriptionRenewed   = "bss.subscription.renewed"
)

// Publisher delivers lifecycle events. Implementations: NATSPublisher, Noop.
type Publisher interface {
	// Publish sends one event on the given subject. Payloads are encoded as
	// JSON.
	Publish(ctx context.Context, subject string, event any) error
}

// OrderEvent is the payload for order lifecycle subjects.
type OrderEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	Currency    string    `json:"currency"`
	Revision    int       `json:"revision"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// SubscriptionEvent is the payload for subscription lifecycle subjects.
type SubscriptionEvent struct {
	SubscriptionID     uuid.UUID `json:"subscription_id"`
	SubscriptionNumber string    `json:"subscription_number"`
	CustomerID         uuid.UUID `json:"customer_id"`
	ProductID          uuid.UUID `json:"product_id"`
	Status             string    `json:"status"`
	NextBillingDate    string    `json:"next_billing_date"`
	Revision           int       `json:"revision"`
	OccurredAt         time.Time `json:"occurred_at"`
}
