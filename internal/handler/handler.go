// Package handler exposes the order and subscription services over HTTP.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/service"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	orders        service.OrderService
	subscriptions service.SubscriptionService
	logger        zerolog.Logger
}

// New creates a new Handler.
func New(orders service.OrderService, subscriptions service.SubscriptionService, logger zerolog.Logger) *Handler {
	return &Handler{
		orders:        orders,
		subscriptions: subscriptions,
		logger:        logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the echo instance with all routes registered.
func (h *Handler) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	v1.POST("/orders", h.createOrder)
	v1.GET("/orders/:id", h.getOrder)
	v1.GET("/orders/by-number/:number", h.getOrderByNumber)
	v1.GET("/orders", h.listOrders)
	v1.POST("/orders/:id/status", h.changeOrderStatus)
	v1.POST("/orders/:id/cancel", h.cancelOrder)
	v1.POST("/orders/:id/items", h.addOrderItem)
	v1.PATCH("/orders/:id/items/:itemID", h.updateOrderItem)
	v1.DELETE("/orders/:id/items/:itemID", h.removeOrderItem)

	v1.POST("/subscriptions", h.createSubscription)
	v1.GET("/subscriptions/:id", h.getSubscription)
	v1.GET("/subscriptions/by-number/:number", h.getSubscriptionByNumber)
	v1.GET("/subscriptions", h.listSubscriptions)
	v1.POST("/subscriptions/:id/suspend", h.suspendSubscription)
	v1.POST("/subscriptions/:id/resume", h.resumeSubscription)
	v1.POST("/subscriptions/:id/cancel", h.cancelSubscription)
	v1.POST("/subscriptions/:id/expire", h.expireSubscription)
	v1.POST("/subscriptions/:id/renew", h.renewSubscription)
	v1.PATCH("/subscriptions/:id", h.updateSubscription)

	return e
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the JSON body returned for every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps domain error codes to HTTP status codes.
func (h *Handler) respondError(c echo.Context, err error) error {
	code := domain.ErrorCode(err)

	status := http.StatusInternalServerError
	switch code {
	case domain.EINVALID:
		status = http.StatusBadRequest
	case domain.ENOTFOUND:
		status = http.StatusNotFound
	case domain.ETRANSITION, domain.ESTATE, domain.ECONFLICT:
		status = http.StatusConflict
	case domain.EINVARIANT:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.JSON(status, errorResponse{Code: code, Message: domain.ErrorMessage(err)})
}
