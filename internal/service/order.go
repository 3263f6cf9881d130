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

// OrderService provides the use-case surface for order lifecycle operations.
// The service owns orchestration only: validation and state rules live in the
// domain aggregates, persistence in the repository, delivery in the publisher.
type OrderService interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)

	ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (domain.Order, error)

	AddOrderItem(ctx context.Context, orderID uuid.UUID, params OrderItemParams) (domain.Order, error)
	UpdateOrderItem(ctx context.Context, orderID, itemID uuid.UUID, params UpdateOrderItemParams) (domain.Order, error)
	RemoveOrderItem(ctx context.Context, orderID, itemID uuid.UUID) (domain.Order, error)
}

// OrderItemParams describes one order line in a create or add request.
type OrderItemParams struct {
	ProductID      uuid.UUID       `validate:"required"`
	ItemType       string          `validate:"omitempty,oneof=PRODUCT SERVICE"`
	ItemCode       string          `validate:"max=50"`
	ItemName       string          `validate:"required,max=255"`
	Quantity       int             `validate:"required,gt=0"`
	UnitPrice      decimal.Decimal `validate:"-"`
	DiscountAmount decimal.Decimal `validate:"-"`
	TaxRate        *decimal.Decimal
}

// CreateOrderParams carries the inputs for CreateOrder.
type CreateOrderParams struct {
	CustomerID    uuid.UUID         `validate:"required"`
	OrderNumber   string            `validate:"required,max=50"`
	OrderType     string            `validate:"required,oneof=SERVICE PRODUCT"`
	Items         []OrderItemParams `validate:"required,min=1,dive"`
	RequestedDate *time.Time
	OrderChannel  string `validate:"max=50"`
}

// UpdateOrderItemParams carries the mutable fields of an existing item. Nil
// fields are left unchanged.
type UpdateOrderItemParams struct {
	Quantity  *int             `validate:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `validate:"-"`
}

type orderService struct {
	repo      OrderRepository
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(repo OrderRepository, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger zerolog.Logger) OrderService {
	return &orderService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "order_service").Logger(),
	}
}

// CreateOrder builds the order aggregate from the request and persists it.
func (s *orderService) CreateOrder(ctx context.Context, params CreateOrderParams) (domain.Order, error) {
	const op = "order.create"

	if err := s.validate.Struct(params); err != nil {
		return domain.Order{}, domain.WrapError(err, domain.EINVALID, op, "invalid order request")
	}

	items := make([]domain.OrderItem, 0, len(params.Items))
	for _, p := range params.Items {
		item, err := buildItem(p)
		if err != nil {
			return domain.Order{}, err
		}
		items = append(items, item)
	}

	order, err := domain.NewOrder(
		params.CustomerID,
		params.OrderNumber,
		items,
		domain.OrderType(params.OrderType),
		params.RequestedDate,
		params.OrderChannel,
	)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.WithLabelValues(string(order.OrderType)).Inc()
		s.metrics.OrderValue.Observe(order.TotalAmount().InexactFloat64())
		s.metrics.OrderItemCount.Observe(float64(len(order.Items)))
	}
	s.publishOrderEvent(ctx, events.SubjectOrderCreated, order)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("total_amount", order.TotalAmount().String()).
		Msg("order created")

	return order, nil
}

// GetOrder retrieves a single order by ID.
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return s.repo.Get(ctx, orderID)
}

// GetOrderByNumber retrieves a single order by its order number.
func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	return s.repo.GetByNumber(ctx, orderNumber)
}

// ListOrdersByCustomer returns all orders for a customer.
func (s *orderService) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// ChangeOrderStatus applies one status transition and persists the result.
func (s *orderService) ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	const op = "order.changeStatus"

	if !status.Valid() {
		return domain.Order{}, domain.Invalid(op, "Unknown order status: "+string(status))
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	from := order.Status
	next, err := order.ChangeStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.OrderTransitions.WithLabelValues(string(from), string(status)).Inc()
	}
	s.publishOrderEvent(ctx, events.SubjectOrderStatusChanged, next)

	return next, nil
}

// CancelOrder cancels the order, recording the reason.
func (s *orderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (domain.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	next, err := order.Cancel(reason)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCancelled.Inc()
	}
	s.publishOrderEvent(ctx, events.SubjectOrderCancelled, next)

	return next, nil
}

// AddOrderItem appends a new line to a pending order.
func (s *orderService) AddOrderItem(ctx context.Context, orderID uuid.UUID, params OrderItemParams) (domain.Order, error) {
	const op = "order.addItem"

	if err := s.validate.Struct(params); err != nil {
		return domain.Order{}, domain.WrapError(err, domain.EINVALID, op, "invalid order item")
	}

	item, err := buildItem(params)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	next, err := order.AddItem(item)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Order{}, err
	}

	return next, nil
}

// UpdateOrderItem applies quantity and price changes to one line.
func (s *orderService) UpdateOrderItem(ctx context.Context, orderID, itemID uuid.UUID, params UpdateOrderItemParams) (domain.Order, error) {
	const op = "order.updateItem"

	if err := s.validate.Struct(params); err != nil {
		return domain.Order{}, domain.WrapError(err, domain.EINVALID, op, "invalid item update")
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	var current *domain.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			current = &order.Items[i]
			break
		}
	}
	if current == nil {
		return domain.Order{}, domain.NotFound(op, "order item", itemID.String())
	}

	updated := *current
	if params.Quantity != nil {
		updated, err = updated.UpdateQuantity(*params.Quantity)
		if err != nil {
			return domain.Order{}, err
		}
	}
	if params.UnitPrice != nil {
		updated, err = updated.UpdateUnitPrice(*params.UnitPrice)
		if err != nil {
			return domain.Order{}, err
		}
	}

	next, err := order.UpdateItem(itemID, updated)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Order{}, err
	}

	return next, nil
}

// RemoveOrderItem drops one line from the order.
func (s *orderService) RemoveOrderItem(ctx context.Context, orderID, itemID uuid.UUID) (domain.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	next, err := order.RemoveItem(itemID)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Order{}, err
	}

	return next, nil
}

func (s *orderService) publishOrderEvent(ctx context.Context, subject string, order domain.Order) {
	event := events.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount().String(),
		Currency:    order.Currency,
		Revision:    order.Revision,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		// Events are best effort; the aggregate is already persisted.
		s.logger.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}

func buildItem(p OrderItemParams) (domain.OrderItem, error) {
	itemType := domain.OrderItemType(p.ItemType)
	taxRate := domain.DefaultTaxRate
	if p.TaxRate != nil {
		taxRate = *p.TaxRate
	}
	return domain.NewOrderItem(p.ProductID, itemType, p.ItemCode, p.ItemName, p.Quantity, p.UnitPrice, p.DiscountAmount, taxRate)
}
