package domain

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the legal status graph for orders. A state with no
// outgoing edges is terminal. No skipping: every forward move is one step.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusApproved, OrderStatusCancelled},
	OrderStatusApproved:   {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// OrderType classifies an order.
type OrderType string

const (
	OrderTypeService OrderType = "SERVICE"
	OrderTypeProduct OrderType = "PRODUCT"
)

// OrderPriority ranks fulfillment urgency.
type OrderPriority string

const (
	OrderPriorityLow    OrderPriority = "LOW"
	OrderPriorityNormal OrderPriority = "NORMAL"
	OrderPriorityHigh   OrderPriority = "HIGH"
	OrderPriorityUrgent OrderPriority = "URGENT"
)

// OrderItemStatus is the lifecycle state of a single order item.
type OrderItemStatus string

const (
	OrderItemStatusPending   OrderItemStatus = "PENDING"
	OrderItemStatusActive    OrderItemStatus = "ACTIVE"
	OrderItemStatusCancelled OrderItemStatus = "CANCELLED"
)

// OrderItemType distinguishes physical products from provisioned services.
type OrderItemType string

const (
	OrderItemTypeProduct OrderItemType = "PRODUCT"
	OrderItemTypeService OrderItemType = "SERVICE"
)

// SubscriptionStatus is the lifecycle state of a Subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusSuspended SubscriptionStatus = "SUSPENDED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
)

// subscriptionTransitions is the legal status graph for subscriptions.
// CANCELLED and EXPIRED are terminal.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusActive:    {SubscriptionStatusSuspended, SubscriptionStatusCancelled, SubscriptionStatusExpired},
	SubscriptionStatusSuspended: {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusCancelled: {},
	SubscriptionStatusExpired:   {},
}

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	_, ok := subscriptionTransitions[s]
	return ok
}

// transition checks a requested status change against a transition table and
// returns an ETRANSITION error naming both states when the edge is illegal.
// Keeping the graphs as data makes the state machines auditable in one place.
func transition[S ~string](op string, table map[S][]S, from, to S) error {
	for _, next := range table[from] {
		if next == to {
			return nil
		}
	}
	return InvalidTransition(op, string(from), string(to))
}
