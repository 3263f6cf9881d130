package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/service"
)

type orderItemRequest struct {
	ProductID      uuid.UUID `json:"product_id"`
	ItemType       string    `json:"item_type"`
	ItemCode       string    `json:"item_code"`
	ItemName       string    `json:"item_name"`
	Quantity       int       `json:"quantity"`
	UnitPrice      string    `json:"unit_price"`
	DiscountAmount string    `json:"discount_amount"`
	TaxRate        *string   `json:"tax_rate"`
}

type createOrderRequest struct {
	CustomerID    uuid.UUID          `json:"customer_id"`
	OrderNumber   string             `json:"order_number"`
	OrderType     string             `json:"order_type"`
	Items         []orderItemRequest `json:"items"`
	RequestedDate *time.Time         `json:"requested_date"`
	OrderChannel  string             `json:"order_channel"`
}

type changeOrderStatusRequest struct {
	Status string `json:"status"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type updateOrderItemRequest struct {
	Quantity  *int    `json:"quantity"`
	UnitPrice *string `json:"unit_price"`
}

type orderItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	ItemType       string     `json:"item_type"`
	ItemCode       string     `json:"item_code,omitempty"`
	ItemName       string     `json:"item_name"`
	Quantity       int        `json:"quantity"`
	UnitPrice      string     `json:"unit_price"`
	DiscountAmount string     `json:"discount_amount"`
	TaxRate        string     `json:"tax_rate"`
	NetAmount      string     `json:"net_amount"`
	TaxAmount      string     `json:"tax_amount"`
	FinalAmount    string     `json:"final_amount"`
	Status         string     `json:"status"`
	ActivationDate *time.Time `json:"activation_date,omitempty"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	OrderType     string              `json:"order_type"`
	Priority      string              `json:"priority"`
	Status        string              `json:"status"`
	Currency      string              `json:"currency"`
	TotalAmount   string              `json:"total_amount"`
	Items         []orderItemResponse `json:"items"`
	RequestedDate *time.Time          `json:"requested_date,omitempty"`
	OrderChannel  string              `json:"order_channel,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Revision      int                 `json:"revision"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ItemType:       string(item.ItemType),
			ItemCode:       item.ItemCode,
			ItemName:       item.ItemName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice.StringFixed(2),
			DiscountAmount: item.DiscountAmount.StringFixed(2),
			TaxRate:        item.TaxRate.StringFixed(2),
			NetAmount:      item.NetAmount().StringFixed(2),
			TaxAmount:      item.TaxAmount().StringFixed(2),
			FinalAmount:    item.FinalAmount().StringFixed(2),
			Status:         string(item.Status),
			ActivationDate: item.ActivationDate,
		}
	}
	return orderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		OrderType:     string(order.OrderType),
		Priority:      string(order.Priority),
		Status:        string(order.Status),
		Currency:      order.Currency,
		TotalAmount:   order.TotalAmount().StringFixed(2),
		Items:         items,
		RequestedDate: order.RequestedDate,
		OrderChannel:  order.OrderChannel,
		Notes:         order.Notes,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Revision:      order.Revision,
	}
}

func (h *Handler) createOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid("order.create", "Malformed request body"))
	}

	items := make([]service.OrderItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		params, err := toItemParams(item)
		if err != nil {
			return h.respondError(c, err)
		}
		items = append(items, params)
	}

	order, err := h.orders.CreateOrder(c.Request().Context(), service.CreateOrderParams{
		CustomerID:    req.CustomerID,
		OrderNumber:   req.OrderNumber,
		OrderType:     req.OrderType,
		Items:         items,
		RequestedDate: req.RequestedDate,
		OrderChannel:  req.OrderChannel,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) getOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid("order.get", "Invalid order ID"))
	}

	order, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) getOrderByNumber(c echo.Context) error {
	order, err := h.orders.GetOrderByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listOrders(c echo.Context) error {
	customerID, err := uuid.Parse(c.QueryParam("customer_id"))
	if err != nil {
		return h.respondError(c, domain.Invalid("order.list", "customer_id query parameter is required"))
	}

	orders, err := h.orders.ListOrdersByCustomer(c.Request().Context(), customerID)
	if err != nil {
		return h.respondError(c, err)
	}

	out := make([]orderResponse, len(orders))
	for i, order := range orders {
		out[i] = toOrderResponse(order)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) changeOrderStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid("order.changeStatus", "Invalid order ID"))
	}

	var req changeOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid("order.changeStatus", "Malformed request body"))
	}

	order, err := h.orders.ChangeOrderStatus(c.Request().Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) cancelOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid("order.cancel", "Invalid order ID"))
	}

	var req cancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid("order.cancel", "Malformed request body"))
	}

	order, err := h.orders.CancelOrder(c.Request().Context(), id, req.Reason)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) addOrderItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid("order.addItem", "Invalid order ID"))
	}

	var req orderItemRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid("order.addItem", "Malformed request body"))
	}

	params, err := toItemParams(req)
	if err != nil {
		return h.respondError(c, err)
	}

	order, err := h.orders.AddOrderItem(c.Request().Context(), id, params)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) updateOrderItem(c echo.Context) error {
	const op = "order.updateItem"

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid(op, "Invalid order ID"))
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		return h.respondError(c, domain.Invalid(op, "Invalid item ID"))
	}

	var req updateOrderItemRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid(op, "Malformed request body"))
	}

	params := service.UpdateOrderItemParams{Quantity: req.Quantity}
	if req.UnitPrice != nil {
		price, err := parseAmount(op, "unit_price", *req.UnitPrice)
		if err != nil {
			return h.respondError(c, err)
		}
		params.UnitPrice = &price
	}

	order, err := h.orders.UpdateOrderItem(c.Request().Context(), id, itemID, params)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) removeOrderItem(c echo.Context) error {
	const op = "order.removeItem"

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid(op, "Invalid order ID"))
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		return h.respondError(c, domain.Invalid(op, "Invalid item ID"))
	}

	order, err := h.orders.RemoveOrderItem(c.Request().Context(), id, itemID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func toItemParams(req orderItemRequest) (service.OrderItemParams, error) {
	const op = "order.item"

	unitPrice, err := parseAmount(op, "unit_price", req.UnitPrice)
	if err != nil {
		return service.OrderItemParams{}, err
	}

	discount := decimal.Zero
	if req.DiscountAmount != "" {
		discount, err = parseAmount(op, "discount_amount", req.DiscountAmount)
		if err != nil {
			return service.OrderItemParams{}, err
		}
	}

	params := service.OrderItemParams{
		ProductID:      req.ProductID,
		ItemType:       req.ItemType,
		ItemCode:       req.ItemCode,
		ItemName:       req.ItemName,
		Quantity:       req.Quantity,
		UnitPrice:      unitPrice,
		DiscountAmount: discount,
	}
	if req.TaxRate != nil {
		rate, err := parseAmount(op, "tax_rate", *req.TaxRate)
		if err != nil {
			return service.OrderItemParams{}, err
		}
		params.TaxRate = &rate
	}
	return params, nil
}

// parseAmount parses a decimal string from a request body. Monetary values
// travel as strings to keep them exact.
func parseAmount(op, field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, domain.Invalid(op, "Invalid decimal value for "+field)
	}
	return d, nil
}
