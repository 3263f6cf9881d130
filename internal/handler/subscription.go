package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/service"
)

type createSubscriptionRequest struct {
	SubscriptionNumber string         `json:"subscription_number"`
	CustomerID         uuid.UUID      `json:"customer_id"`
	ProductID          uuid.UUID      `json:"product_id"`
	OrderID            *uuid.UUID     `json:"order_id"`
	StartDate          time.Time      `json:"start_date"`
	BillingPeriod      string         `json:"billing_period"`
	Price              string         `json:"price"`
	Currency           string         `json:"currency"`
	DiscountAmount     string         `json:"discount_amount"`
	Configuration      map[string]any `json:"configuration"`
	AutoRenew          bool           `json:"auto_renew"`
}

// updateSubscriptionRequest carries optional field updates. Nil fields are
// left unchanged.
type updateSubscriptionRequest struct {
	Price          *string `json:"price"`
	DiscountAmount *string `json:"discount_amount"`
	AutoRenew      *bool   `json:"auto_renew"`
}

type renewSubscriptionRequest struct {
	AsOf *time.Time `json:"as_of"`
}

type subscriptionResponse struct {
	ID                 uuid.UUID      `json:"id"`
	SubscriptionNumber string         `json:"subscription_number"`
	CustomerID         uuid.UUID      `json:"customer_id"`
	ProductID          uuid.UUID      `json:"product_id"`
	OrderID            *uuid.UUID     `json:"order_id,omitempty"`
	Status             string         `json:"status"`
	StartDate          string         `json:"start_date"`
	EndDate            *string        `json:"end_date,omitempty"`
	BillingStart       string         `json:"billing_start"`
	NextBillingDate    string         `json:"next_billing_date"`
	BillingPeriod      string         `json:"billing_period"`
	Price              string         `json:"price"`
	Currency           string         `json:"currency"`
	DiscountAmount     string         `json:"discount_amount"`
	NetAmount          string         `json:"net_amount"`
	Configuration      map[string]any `json:"configuration,omitempty"`
	AutoRenew          bool           `json:"auto_renew"`
	RenewalNoticeSent  bool           `json:"renewal_notice_sent"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Revision           int            `json:"revision"`
}

const dateFormat = "2006-01-02"

func toSubscriptionResponse(sub domain.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:                 sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		CustomerID:         sub.CustomerID,
		ProductID:          sub.ProductID,
		OrderID:            sub.OrderID,
		Status:             string(sub.Status),
		StartDate:          sub.StartDate.Format(dateFormat),
		BillingStart:       sub.BillingStart.Format(dateFormat),
		NextBillingDate:    sub.NextBillingDate.Format(dateFormat),
		BillingPeriod:      string(sub.BillingPeriod),
		Price:              sub.Price.StringFixed(2),
		Currency:           sub.Currency,
		DiscountAmount:     sub.DiscountAmount.StringFixed(2),
		NetAmount:          sub.NetAmount().StringFixed(2),
		Configuration:      sub.Configuration,
		AutoRenew:          sub.AutoRenew,
		RenewalNoticeSent:  sub.RenewalNoticeSent,
		CreatedAt:          sub.CreatedAt,
		UpdatedAt:          sub.UpdatedAt,
		Revision:           sub.Revision,
	}
	if sub.EndDate != nil {
		end := sub.EndDate.Format(dateFormat)
		resp.EndDate = &end
	}
	return resp
}

func (h *Handler) createSubscription(c echo.Context) error {
	const op = "subscription.create"

	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid(op, "Malformed request body"))
	}

	price, err := parseAmount(op, "price", req.Price)
	if err != nil {
		return h.respondError(c, err)
	}
	discount := decimal.Zero
	if req.DiscountAmount != "" {
		discount, err = parseAmount(op, "discount_amount", req.DiscountAmount)
		if err != nil {
			return h.respondError(c, err)
		}
	}

	sub, err := h.subscriptions.CreateSubscription(c.Request().Context(), service.CreateSubscriptionParams{
		SubscriptionNumber: req.SubscriptionNumber,
		CustomerID:         req.CustomerID,
		ProductID:          req.ProductID,
		OrderID:            req.OrderID,
		StartDate:          req.StartDate,
		BillingPeriod:      req.BillingPeriod,
		Price:              price,
		Currency:           req.Currency,
		DiscountAmount:     discount,
		Configuration:      req.Configuration,
		AutoRenew:          req.AutoRenew,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toSubscriptionResponse(sub))
}

func (h *Handler) getSubscription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid("subscription.get", "Invalid subscription ID"))
	}

	sub, err := h.subscriptions.GetSubscription(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) getSubscriptionByNumber(c echo.Context) error {
	sub, err := h.subscriptions.GetSubscriptionByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) listSubscriptions(c echo.Context) error {
	customerID, err := uuid.Parse(c.QueryParam("customer_id"))
	if err != nil {
		return h.respondError(c, domain.Invalid("subscription.list", "customer_id query parameter is required"))
	}

	subs, err := h.subscriptions.ListSubscriptionsByCustomer(c.Request().Context(), customerID)
	if err != nil {
		return h.respondError(c, err)
	}

	out := make([]subscriptionResponse, len(subs))
	for i, sub := range subs {
		out[i] = toSubscriptionResponse(sub)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) suspendSubscription(c echo.Context) error {
	return h.lifecycle(c, "subscription.suspend", h.subscriptions.SuspendSubscription)
}

func (h *Handler) resumeSubscription(c echo.Context) error {
	return h.lifecycle(c, "subscription.resume", h.subscriptions.ResumeSubscription)
}

func (h *Handler) cancelSubscription(c echo.Context) error {
	return h.lifecycle(c, "subscription.cancel", h.subscriptions.CancelSubscription)
}

func (h *Handler) expireSubscription(c echo.Context) error {
	return h.lifecycle(c, "subscription.expire", h.subscriptions.ExpireSubscription)
}

func (h *Handler) renewSubscription(c echo.Context) error {
	const op = "subscription.renew"

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid(op, "Invalid subscription ID"))
	}

	var req renewSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid(op, "Malformed request body"))
	}
	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	sub, err := h.subscriptions.RenewSubscription(c.Request().Context(), id, asOf)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) updateSubscription(c echo.Context) error {
	const op = "subscription.update"

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid(op, "Invalid subscription ID"))
	}

	var req updateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.Invalid(op, "Malformed request body"))
	}

	ctx := c.Request().Context()
	sub, err := h.subscriptions.GetSubscription(ctx, id)
	if err != nil {
		return h.respondError(c, err)
	}

	if req.Price != nil {
		price, err := parseAmount(op, "price", *req.Price)
		if err != nil {
			return h.respondError(c, err)
		}
		sub, err = h.subscriptions.UpdateSubscriptionPrice(ctx, id, price)
		if err != nil {
			return h.respondError(c, err)
		}
	}
	if req.DiscountAmount != nil {
		discount, err := parseAmount(op, "discount_amount", *req.DiscountAmount)
		if err != nil {
			return h.respondError(c, err)
		}
		sub, err = h.subscriptions.UpdateSubscriptionDiscount(ctx, id, discount)
		if err != nil {
			return h.respondError(c, err)
		}
	}
	if req.AutoRenew != nil {
		sub, err = h.subscriptions.UpdateAutoRenew(ctx, id, *req.AutoRenew)
		if err != nil {
			return h.respondError(c, err)
		}
	}

	return c.JSON(http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) lifecycle(c echo.Context, op string, fn func(context.Context, uuid.UUID) (domain.Subscription, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.respondError(c, domain.Invalid(op, "Invalid subscription ID"))
	}

	sub, err := fn(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSubscriptionResponse(sub))
}
