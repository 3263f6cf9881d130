package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/events"
)

func newTestOrderService(repo *memOrderRepo, pub events.Publisher) OrderService {
	if pub == nil {
		pub = events.Noop{}
	}
	return NewOrderService(repo, pub, nil, zerolog.Nop())
}

func validCreateOrderParams() CreateOrderParams {
	return CreateOrderParams{
		CustomerID:  uuid.New(),
		OrderNumber: "ORD-2025-001",
		OrderType:   "PRODUCT",
		Items: []OrderItemParams{
			{
				ProductID: uuid.New(),
				ItemName:  "Fiber 300",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("100.00"),
			},
		},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending order with computed total", func(t *testing.T) {
		repo := newMemOrderRepo()
		pub := &capturingPublisher{}
		svc := newTestOrderService(repo, pub)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, 1, order.Revision)
		// 2 x 100.00 net, 23% tax
		assert.True(t, order.TotalAmount().Equal(decimal.RequireFromString("246.00")),
			"total = %s", order.TotalAmount())

		stored, err := repo.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, stored.ID)

		assert.Equal(t, []string{events.SubjectOrderCreated}, pub.published())
	})

	t.Run("rejects missing items", func(t *testing.T) {
		svc := newTestOrderService(newMemOrderRepo(), nil)

		params := validCreateOrderParams()
		params.Items = nil

		_, err := svc.CreateOrder(ctx, params)
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("rejects unknown order type", func(t *testing.T) {
		svc := newTestOrderService(newMemOrderRepo(), nil)

		params := validCreateOrderParams()
		params.OrderType = "LEASE"

		_, err := svc.CreateOrder(ctx, params)
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("rejects negative unit price via domain", func(t *testing.T) {
		svc := newTestOrderService(newMemOrderRepo(), nil)

		params := validCreateOrderParams()
		params.Items[0].UnitPrice = decimal.RequireFromString("-1.00")

		_, err := svc.CreateOrder(ctx, params)
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})
}

func TestOrderService_ChangeOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("walks the happy path", func(t *testing.T) {
		repo := newMemOrderRepo()
		pub := &capturingPublisher{}
		svc := newTestOrderService(repo, pub)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		for _, status := range []domain.OrderStatus{
			domain.OrderStatusApproved,
			domain.OrderStatusInProgress,
			domain.OrderStatusProcessing,
			domain.OrderStatusCompleted,
		} {
			order, err = svc.ChangeOrderStatus(ctx, order.ID, status)
			require.NoError(t, err, "transition to %s", status)
			assert.Equal(t, status, order.Status)
		}
		assert.Equal(t, 5, order.Revision)
	})

	t.Run("rejects skipping a step", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(repo, nil)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		_, err = svc.ChangeOrderStatus(ctx, order.ID, domain.OrderStatusCompleted)
		assert.True(t, domain.IsCode(err, domain.ETRANSITION))

		stored, err := repo.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, stored.Status)
		assert.Equal(t, 1, stored.Revision)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := newTestOrderService(newMemOrderRepo(), nil)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		_, err = svc.ChangeOrderStatus(ctx, order.ID, "SHIPPED")
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("missing order yields not found", func(t *testing.T) {
		svc := newTestOrderService(newMemOrderRepo(), nil)

		_, err := svc.ChangeOrderStatus(ctx, uuid.New(), domain.OrderStatusApproved)
		assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels and records reason", func(t *testing.T) {
		repo := newMemOrderRepo()
		pub := &capturingPublisher{}
		svc := newTestOrderService(repo, pub)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		cancelled, err := svc.CancelOrder(ctx, order.ID, "customer changed mind")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
		assert.Contains(t, cancelled.Notes, "customer changed mind")

		assert.Contains(t, pub.published(), events.SubjectOrderCancelled)
	})

	t.Run("cannot cancel a completed order", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(repo, nil)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		for _, status := range []domain.OrderStatus{
			domain.OrderStatusApproved,
			domain.OrderStatusInProgress,
			domain.OrderStatusProcessing,
			domain.OrderStatusCompleted,
		} {
			order, err = svc.ChangeOrderStatus(ctx, order.ID, status)
			require.NoError(t, err)
		}

		_, err = svc.CancelOrder(ctx, order.ID, "too late")
		assert.True(t, domain.IsCode(err, domain.ESTATE))
	})
}

func TestOrderService_Items(t *testing.T) {
	ctx := context.Background()

	t.Run("add item to pending order", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(repo, nil)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		next, err := svc.AddOrderItem(ctx, order.ID, OrderItemParams{
			ProductID: uuid.New(),
			ItemName:  "Static IP",
			ItemType:  "SERVICE",
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("10.00"),
		})
		require.NoError(t, err)
		assert.Len(t, next.Items, 2)
		assert.Equal(t, 2, next.Revision)
	})

	t.Run("update item quantity and price", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(repo, nil)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		qty := 5
		price := decimal.RequireFromString("80.00")
		next, err := svc.UpdateOrderItem(ctx, order.ID, order.Items[0].ID, UpdateOrderItemParams{
			Quantity:  &qty,
			UnitPrice: &price,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, next.Items[0].Quantity)
		assert.True(t, next.Items[0].UnitPrice.Equal(price))
	})

	t.Run("update unknown item yields not found", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(repo, nil)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		qty := 3
		_, err = svc.UpdateOrderItem(ctx, order.ID, uuid.New(), UpdateOrderItemParams{Quantity: &qty})
		assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	})

	t.Run("remove last item violates invariant", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(repo, nil)

		order, err := svc.CreateOrder(ctx, validCreateOrderParams())
		require.NoError(t, err)

		_, err = svc.RemoveOrderItem(ctx, order.ID, order.Items[0].ID)
		assert.True(t, domain.IsCode(err, domain.EINVARIANT))
	})

	t.Run("remove one of two items", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(repo, nil)

		params := validCreateOrderParams()
		params.Items = append(params.Items, OrderItemParams{
			ProductID: uuid.New(),
			ItemName:  "Router rental",
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("15.00"),
		})
		order, err := svc.CreateOrder(ctx, params)
		require.NoError(t, err)

		next, err := svc.RemoveOrderItem(ctx, order.ID, order.Items[1].ID)
		require.NoError(t, err)
		assert.Len(t, next.Items, 1)
	})
}

func TestOrderService_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := newTestOrderService(repo, nil)

	params := validCreateOrderParams()
	order, err := svc.CreateOrder(ctx, params)
	require.NoError(t, err)

	byNumber, err := svc.GetOrderByNumber(ctx, params.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)

	listed, err := svc.ListOrdersByCustomer(ctx, params.CustomerID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.GetOrder(ctx, uuid.New())
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
}
