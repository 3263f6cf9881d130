package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the aggregate root for a customer order. It owns a non-empty,
// ordered collection of items and a guarded status machine.
//
// Order is an immutable value: mutators never touch the receiver, they return
// a new Order with Revision+1. The Revision field doubles as the
// optimistic-concurrency token at the persistence boundary.
type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	CustomerID    uuid.UUID
	OrderType     OrderType
	Priority      OrderPriority
	Status        OrderStatus
	Currency      string
	Items         []OrderItem
	RequestedDate *time.Time
	PromisedDate  *time.Time
	OrderChannel  string
	SalesRepID    string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Revision      int
}

// NewOrder creates a new order in PENDING status with revision 1.
// The item collection must not be empty.
func NewOrder(
	customerID uuid.UUID,
	orderNumber string,
	items []OrderItem,
	orderType OrderType,
	requestedDate *time.Time,
	orderChannel string,
) (Order, error) {
	const op = "order.create"

	if customerID == uuid.Nil {
		return Order{}, Invalid(op, "Customer ID is required")
	}
	if orderNumber == "" {
		return Order{}, Invalid(op, "Order number is required")
	}
	if len(items) == 0 {
		return Order{}, Invalid(op, "Order must have at least one item")
	}

	now := time.Now().UTC()

	return Order{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		CustomerID:    customerID,
		OrderType:     orderType,
		Priority:      OrderPriorityNormal,
		Status:        OrderStatusPending,
		Currency:      "PLN",
		Items:         cloneItems(items),
		RequestedDate: requestedDate,
		OrderChannel:  orderChannel,
		CreatedAt:     now,
		UpdatedAt:     now,
		Revision:      1,
	}, nil
}

// NewOrderFromItem creates a new single-item order.
func NewOrderFromItem(customerID uuid.UUID, orderNumber string, item OrderItem, orderType OrderType) (Order, error) {
	return NewOrder(customerID, orderNumber, []OrderItem{item}, orderType, nil, "")
}

// TotalAmount is the sum of each item's final amount. It is recomputed from
// the items on every call, never stored, so it cannot drift.
func (o Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.FinalAmount())
	}
	return total
}

// ChangeStatus returns a copy of the order in the new status. The requested
// edge is validated against the order transition table; terminal states
// permit no transition at all.
func (o Order) ChangeStatus(newStatus OrderStatus) (Order, error) {
	const op = "order.changeStatus"

	if len(orderTransitions[o.Status]) == 0 {
		return Order{}, Errorf(ETRANSITION, op, "Cannot transition from %s", o.Status)
	}
	if err := transition(op, orderTransitions, o.Status, newStatus); err != nil {
		return Order{}, err
	}

	next := o.bump()
	next.Status = newStatus
	return next, nil
}

// Cancel cancels the order and records the reason in the notes.
func (o Order) Cancel(reason string) (Order, error) {
	const op = "order.cancel"

	if !o.CanBeCancelled() {
		return Order{}, InvalidState(op, "Order with status "+string(o.Status)+" cannot be cancelled")
	}

	next := o.bump()
	next.Status = OrderStatusCancelled
	next.Notes = reason
	return next, nil
}

// AddItem returns a copy of the order with the item appended.
// Items may only be added while the order is PENDING.
func (o Order) AddItem(item OrderItem) (Order, error) {
	const op = "order.addItem"

	if o.Status != OrderStatusPending {
		return Order{}, InvalidState(op, "Cannot add items to order with status "+string(o.Status))
	}

	next := o.bump()
	next.Items = append(cloneItems(o.Items), item)
	return next, nil
}

// UpdateItem returns a copy of the order with the identified item replaced.
func (o Order) UpdateItem(itemID uuid.UUID, updated OrderItem) (Order, error) {
	const op = "order.updateItem"

	items := cloneItems(o.Items)
	found := false
	for idx, item := range items {
		if item.ID == itemID {
			items[idx] = updated
			found = true
			break
		}
	}
	if !found {
		return Order{}, NotFound(op, "order item", itemID.String())
	}

	next := o.bump()
	next.Items = items
	return next, nil
}

// RemoveItem returns a copy of the order without the identified item.
// An order must always keep at least one item.
func (o Order) RemoveItem(itemID uuid.UUID) (Order, error) {
	const op = "order.removeItem"

	items := make([]OrderItem, 0, len(o.Items))
	found := false
	for _, item := range o.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return Order{}, NotFound(op, "order item", itemID.String())
	}
	if len(items) == 0 {
		return Order{}, InvariantViolation(op, "Order must have at least one item")
	}

	next := o.bump()
	next.Items = items
	return next, nil
}

// IsPending reports whether the order is awaiting approval.
func (o Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsCompleted reports whether the order reached its terminal success state.
func (o Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// IsCancelled reports whether the order was cancelled.
func (o Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// CanBeCancelled reports whether a direct cancellation is still legal.
func (o Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending ||
		o.Status == OrderStatusApproved ||
		o.Status == OrderStatusInProgress
}

// CanBeModified reports whether the item collection may still change.
func (o Order) CanBeModified() bool {
	return o.Status == OrderStatusPending
}

// bump returns a shallow copy with the revision incremented and the update
// timestamp refreshed. Callers overwrite the fields they change.
func (o Order) bump() Order {
	next := o
	next.UpdatedAt = time.Now().UTC()
	next.Revision = o.Revision + 1
	return next
}

func cloneItems(items []OrderItem) []OrderItem {
	out := make([]OrderItem, len(items))
	copy(out, items)
	return out
}
