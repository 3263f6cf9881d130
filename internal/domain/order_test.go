package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(t *testing.T) OrderItem {
	t.Helper()
	item, err := NewProductItem(uuid.New(), "Fiber 300", 2, dec("100.00"))
	require.NoError(t, err)
	return item
}

func testOrder(t *testing.T) Order {
	t.Helper()
	order, err := NewOrderFromItem(uuid.New(), "ORDER-001", testItem(t), OrderTypeService)
	require.NoError(t, err)
	return order
}

// orderAt walks a fresh order to the given status through legal edges.
func orderAt(t *testing.T, status OrderStatus) Order {
	t.Helper()
	order := testOrder(t)
	path := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {},
		OrderStatusApproved:   {OrderStatusApproved},
		OrderStatusInProgress: {OrderStatusApproved, OrderStatusInProgress},
		OrderStatusProcessing: {OrderStatusApproved, OrderStatusInProgress, OrderStatusProcessing},
		OrderStatusCompleted:  {OrderStatusApproved, OrderStatusInProgress, OrderStatusProcessing, OrderStatusCompleted},
		OrderStatusCancelled:  {OrderStatusCancelled},
	}
	for _, step := range path[status] {
		var err error
		order, err = order.ChangeStatus(step)
		require.NoError(t, err)
	}
	return order
}

func TestNewOrder(t *testing.T) {
	customerID := uuid.New()
	item := testItem(t)

	order, err := NewOrderFromItem(customerID, "ORDER-001", item, OrderTypeService)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, "ORDER-001", order.OrderNumber)
	assert.Equal(t, customerID, order.CustomerID)
	assert.Equal(t, OrderTypeService, order.OrderType)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, OrderPriorityNormal, order.Priority)
	assert.Equal(t, "PLN", order.Currency)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Revision)
	assert.True(t, order.TotalAmount().Equal(dec("246.00")), "TotalAmount() = %s", order.TotalAmount())
}

func TestNewOrder_Validation(t *testing.T) {
	item := testItem(t)

	_, err := NewOrder(uuid.Nil, "ORDER-001", []OrderItem{item}, OrderTypeService, nil, "")
	assert.True(t, IsCode(err, EINVALID), "missing customer")

	_, err = NewOrder(uuid.New(), "", []OrderItem{item}, OrderTypeService, nil, "")
	assert.True(t, IsCode(err, EINVALID), "missing order number")

	_, err = NewOrder(uuid.New(), "ORDER-001", nil, OrderTypeService, nil, "")
	assert.True(t, IsCode(err, EINVALID), "empty item collection")
}

// Walks the full happy path and verifies the revision grows by exactly one
// per transition, then checks that the terminal state is closed.
func TestOrder_ChangeStatus_HappyPath(t *testing.T) {
	order := testOrder(t)
	initial := order.Revision

	for _, status := range []OrderStatus{
		OrderStatusApproved,
		OrderStatusInProgress,
		OrderStatusProcessing,
		OrderStatusCompleted,
	} {
		var err error
		order, err = order.ChangeStatus(status)
		require.NoError(t, err, "transition to %s", status)
		assert.Equal(t, status, order.Status)
	}

	assert.Equal(t, initial+4, order.Revision)

	_, err := order.ChangeStatus(OrderStatusPending)
	require.Error(t, err)
	assert.True(t, IsCode(err, ETRANSITION))
	assert.Contains(t, err.Error(), "Cannot transition from COMPLETED")
}

// Every (state, requested) pair outside the transition table must fail with
// ETRANSITION; every pair in the table must succeed with revision+1.
func TestOrder_ChangeStatus_Closure(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusApproved, OrderStatusInProgress,
		OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled,
	}

	allowed := map[OrderStatus]map[OrderStatus]bool{
		OrderStatusPending:    {OrderStatusApproved: true, OrderStatusCancelled: true},
		OrderStatusApproved:   {OrderStatusInProgress: true, OrderStatusCancelled: true},
		OrderStatusInProgress: {OrderStatusProcessing: true, OrderStatusCancelled: true},
		OrderStatusProcessing: {OrderStatusCompleted: true},
		OrderStatusCompleted:  {},
		OrderStatusCancelled:  {},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				order := orderAt(t, from)
				next, err := order.ChangeStatus(to)

				if allowed[from][to] {
					require.NoError(t, err)
					assert.Equal(t, to, next.Status)
					assert.Equal(t, order.Revision+1, next.Revision)
				} else {
					require.Error(t, err)
					assert.True(t, IsCode(err, ETRANSITION), "want ETRANSITION, got %s", ErrorCode(err))
					assert.Equal(t, from, order.Status, "failed transition must not mutate")
				}
			})
		}
	}
}

func TestOrder_Cancel(t *testing.T) {
	order := testOrder(t)

	cancelled, err := order.Cancel("customer changed mind")
	require.NoError(t, err)

	assert.True(t, cancelled.IsCancelled())
	assert.Equal(t, "customer changed mind", cancelled.Notes)
	assert.Equal(t, order.Revision+1, cancelled.Revision)
	assert.False(t, order.IsCancelled(), "original must be untouched")

	_, err = cancelled.Cancel("again")
	assert.True(t, IsCode(err, ESTATE), "cancelling twice is forbidden")

	completed := orderAt(t, OrderStatusCompleted)
	_, err = completed.Cancel("too late")
	assert.True(t, IsCode(err, ESTATE), "completed orders cannot be cancelled")
}

func TestOrder_AddItem(t *testing.T) {
	order := testOrder(t)
	extra, err := NewProductItem(uuid.New(), "Router rental", 1, dec("20.00"))
	require.NoError(t, err)

	grown, err := order.AddItem(extra)
	require.NoError(t, err)

	assert.Len(t, grown.Items, 2)
	assert.Len(t, order.Items, 1, "original must be untouched")
	assert.Equal(t, order.Revision+1, grown.Revision)
	// 246.00 + (20.00 + 4.60 tax) = 270.60
	assert.True(t, grown.TotalAmount().Equal(dec("270.60")), "TotalAmount() = %s", grown.TotalAmount())

	approved := orderAt(t, OrderStatusApproved)
	_, err = approved.AddItem(extra)
	assert.True(t, IsCode(err, ESTATE), "items may only be added while pending")
}

func TestOrder_UpdateItem(t *testing.T) {
	order := testOrder(t)
	item := order.Items[0]

	bigger, err := item.UpdateQuantity(4)
	require.NoError(t, err)

	updated, err := order.UpdateItem(item.ID, bigger)
	require.NoError(t, err)

	assert.Equal(t, 4, updated.Items[0].Quantity)
	assert.Equal(t, 2, order.Items[0].Quantity, "original must be untouched")
	// 4 * 100.00 net 400.00 + 92.00 tax = 492.00
	assert.True(t, updated.TotalAmount().Equal(dec("492.00")))

	_, err = order.UpdateItem(uuid.New(), bigger)
	assert.True(t, IsCode(err, ENOTFOUND))
}

func TestOrder_RemoveItem(t *testing.T) {
	order := testOrder(t)
	extra, err := NewProductItem(uuid.New(), "Router rental", 1, dec("20.00"))
	require.NoError(t, err)
	order, err = order.AddItem(extra)
	require.NoError(t, err)

	shrunk, err := order.RemoveItem(extra.ID)
	require.NoError(t, err)
	assert.Len(t, shrunk.Items, 1)
	assert.True(t, shrunk.TotalAmount().Equal(dec("246.00")))

	_, err = shrunk.RemoveItem(shrunk.Items[0].ID)
	require.Error(t, err)
	assert.True(t, IsCode(err, EINVARIANT), "removing the last item breaks the invariant")
	assert.Contains(t, err.Error(), "must have at least one item")

	_, err = shrunk.RemoveItem(uuid.New())
	assert.True(t, IsCode(err, ENOTFOUND))
}

func TestOrder_Queries(t *testing.T) {
	tests := []struct {
		status         OrderStatus
		pending        bool
		completed      bool
		cancelled      bool
		canBeCancelled bool
		canBeModified  bool
	}{
		{OrderStatusPending, true, false, false, true, true},
		{OrderStatusApproved, false, false, false, true, false},
		{OrderStatusInProgress, false, false, false, true, false},
		{OrderStatusProcessing, false, false, false, false, false},
		{OrderStatusCompleted, false, true, false, false, false},
		{OrderStatusCancelled, false, false, true, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			order := orderAt(t, tt.status)
			assert.Equal(t, tt.pending, order.IsPending())
			assert.Equal(t, tt.completed, order.IsCompleted())
			assert.Equal(t, tt.cancelled, order.IsCancelled())
			assert.Equal(t, tt.canBeCancelled, order.CanBeCancelled())
			assert.Equal(t, tt.canBeModified, order.CanBeModified())
		})
	}
}
