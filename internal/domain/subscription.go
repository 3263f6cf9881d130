package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingPeriod is the recurrence unit governing how the next billing date
// advances. Stored as a normalized uppercase token.
type BillingPeriod string

const (
	BillingPeriodMonthly   BillingPeriod = "MONTHLY"
	BillingPeriodQuarterly BillingPeriod = "QUARTERLY"
	BillingPeriodYearly    BillingPeriod = "YEARLY"
)

// Advance moves a billing date forward by one period. Month arithmetic
// clamps to the last day of the target month (Jan 31 + 1 month = Feb 28),
// never spilling into the following month. Unknown periods advance by one
// month.
func (p BillingPeriod) Advance(date time.Time) time.Time {
	switch p {
	case BillingPeriodQuarterly:
		return addMonths(date, 3)
	case BillingPeriodYearly:
		return addMonths(date, 12)
	default:
		return addMonths(date, 1)
	}
}

// Subscription is the aggregate root for a recurring billing contract. Like
// Order it is an immutable value: mutators return a new Subscription with
// Revision+1 and a refreshed UpdatedAt, leaving the receiver intact.
type Subscription struct {
	ID                 uuid.UUID
	SubscriptionNumber string
	CustomerID         uuid.UUID
	ProductID          uuid.UUID
	OrderID            *uuid.UUID
	Status             SubscriptionStatus
	StartDate          time.Time
	EndDate            *time.Time
	BillingStart       time.Time
	NextBillingDate    time.Time
	BillingPeriod      BillingPeriod
	Price              decimal.Decimal
	Currency           string
	DiscountAmount     decimal.Decimal
	Configuration      map[string]any
	AutoRenew          bool
	RenewalNoticeSent  bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Revision           int
}

// SubscriptionParams carries the inputs for NewSubscription. OrderID,
// Currency, DiscountAmount and Configuration are optional.
type SubscriptionParams struct {
	SubscriptionNumber string
	CustomerID         uuid.UUID
	ProductID          uuid.UUID
	OrderID            *uuid.UUID
	StartDate          time.Time
	BillingPeriod      string
	Price              decimal.Decimal
	Currency           string
	DiscountAmount     decimal.Decimal
	Configuration      map[string]any
	AutoRenew          bool
}

// NewSubscription creates a new ACTIVE subscription with revision 1.
// The billing period token is normalized to uppercase, the currency defaults
// to PLN, the first billing cycle starts at the start date and the next
// billing date is one period later.
func NewSubscription(params SubscriptionParams) (Subscription, error) {
	const op = "subscription.create"

	if params.SubscriptionNumber == "" {
		return Subscription{}, Invalid(op, "Subscription number is required")
	}
	if params.CustomerID == uuid.Nil {
		return Subscription{}, Invalid(op, "Customer ID is required")
	}
	if params.ProductID == uuid.Nil {
		return Subscription{}, Invalid(op, "Product ID is required")
	}
	if params.StartDate.IsZero() {
		return Subscription{}, Invalid(op, "Start date is required")
	}
	if params.BillingPeriod == "" {
		return Subscription{}, Invalid(op, "Billing period is required")
	}
	if params.Price.IsNegative() {
		return Subscription{}, Invalid(op, "Price cannot be negative")
	}
	if params.DiscountAmount.IsNegative() {
		return Subscription{}, Invalid(op, "Discount amount cannot be negative")
	}
	if params.DiscountAmount.GreaterThan(params.Price) {
		return Subscription{}, Invalid(op, "Discount cannot exceed price")
	}

	currency := params.Currency
	if currency == "" {
		currency = "PLN"
	}

	period := BillingPeriod(strings.ToUpper(params.BillingPeriod))
	billingStart := dateOnly(params.StartDate)
	now := time.Now().UTC()

	return Subscription{
		ID:                 uuid.New(),
		SubscriptionNumber: params.SubscriptionNumber,
		CustomerID:         params.CustomerID,
		ProductID:          params.ProductID,
		OrderID:            params.OrderID,
		Status:             SubscriptionStatusActive,
		StartDate:          billingStart,
		BillingStart:       billingStart,
		NextBillingDate:    period.Advance(billingStart),
		BillingPeriod:      period,
		Price:              params.Price,
		Currency:           currency,
		DiscountAmount:     params.DiscountAmount,
		Configuration:      params.Configuration,
		AutoRenew:          params.AutoRenew,
		CreatedAt:          now,
		UpdatedAt:          now,
		Revision:           1,
	}, nil
}

// NetAmount is price minus discount, recomputed on every read so it cannot
// drift from its inputs.
func (s Subscription) NetAmount() decimal.Decimal {
	return s.Price.Sub(s.DiscountAmount)
}

// ChangeStatus returns a copy of the subscription in the new status, if the
// edge is legal. Entering CANCELLED or EXPIRED stamps the end date.
func (s Subscription) ChangeStatus(newStatus SubscriptionStatus) (Subscription, error) {
	const op = "subscription.changeStatus"

	if err := transition(op, subscriptionTransitions, s.Status, newStatus); err != nil {
		return Subscription{}, err
	}

	next := s.bump()
	next.Status = newStatus
	if newStatus == SubscriptionStatusCancelled || newStatus == SubscriptionStatusExpired {
		end := dateOnly(time.Now().UTC())
		next.EndDate = &end
	}
	return next, nil
}

// Suspend moves an ACTIVE subscription to SUSPENDED.
func (s Subscription) Suspend() (Subscription, error) {
	return s.ChangeStatus(SubscriptionStatusSuspended)
}

// Resume moves a SUSPENDED subscription back to ACTIVE and clears the end
// date.
func (s Subscription) Resume() (Subscription, error) {
	next, err := s.ChangeStatus(SubscriptionStatusActive)
	if err != nil {
		return Subscription{}, err
	}
	next.EndDate = nil
	return next, nil
}

// Cancel moves an ACTIVE or SUSPENDED subscription to CANCELLED and stamps
// the end date with the current date.
func (s Subscription) Cancel() (Subscription, error) {
	return s.ChangeStatus(SubscriptionStatusCancelled)
}

// Expire moves an ACTIVE subscription to EXPIRED.
func (s Subscription) Expire() (Subscription, error) {
	return s.ChangeStatus(SubscriptionStatusExpired)
}

// UpdatePrice returns a copy of the subscription with the new price.
func (s Subscription) UpdatePrice(price decimal.Decimal) (Subscription, error) {
	const op = "subscription.updatePrice"

	if price.IsNegative() {
		return Subscription{}, Invalid(op, "Price cannot be negative")
	}

	next := s.bump()
	next.Price = price
	return next, nil
}

// UpdateDiscount returns a copy of the subscription with the new discount.
func (s Subscription) UpdateDiscount(discount decimal.Decimal) (Subscription, error) {
	const op = "subscription.updateDiscount"

	if discount.IsNegative() {
		return Subscription{}, Invalid(op, "Discount amount cannot be negative")
	}
	if discount.GreaterThan(s.Price) {
		return Subscription{}, Invalid(op, "Discount cannot exceed price")
	}

	next := s.bump()
	next.DiscountAmount = discount
	return next, nil
}

// UpdateAutoRenew returns a copy of the subscription with the auto-renew
// flag set.
func (s Subscription) UpdateAutoRenew(autoRenew bool) Subscription {
	next := s.bump()
	next.AutoRenew = autoRenew
	return next
}

// MarkRenewalNoticeSent records that the renewal notice went out.
func (s Subscription) MarkRenewalNoticeSent() Subscription {
	next := s.bump()
	next.RenewalNoticeSent = true
	return next
}

// Renew starts the next billing cycle: the cycle that was due becomes the
// new billing start, and the next billing date advances one period. Renewal
// requires auto-renew and is rejected before the billing date falls due.
func (s Subscription) Renew(asOf time.Time) (Subscription, error) {
	const op = "subscription.renew"

	if !s.AutoRenew {
		return Subscription{}, InvalidState(op, "Subscription cannot be automatically renewed")
	}
	if dateOnly(asOf).Before(s.NextBillingDate) {
		return Subscription{}, InvalidState(op, "Cannot renew before next billing date")
	}

	next := s.bump()
	next.BillingStart = s.NextBillingDate
	next.NextBillingDate = s.BillingPeriod.Advance(s.NextBillingDate)
	return next, nil
}

// IsActive reports whether the subscription is in ACTIVE status.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// IsSuspended reports whether the subscription is in SUSPENDED status.
func (s Subscription) IsSuspended() bool {
	return s.Status == SubscriptionStatusSuspended
}

// IsCancelled reports whether the subscription is in CANCELLED status.
func (s Subscription) IsCancelled() bool {
	return s.Status == SubscriptionStatusCancelled
}

// IsExpired reports whether the subscription has expired, either explicitly
// or because its end date has passed.
func (s Subscription) IsExpired(asOf time.Time) bool {
	if s.Status == SubscriptionStatusExpired {
		return true
	}
	return s.EndDate != nil && dateOnly(asOf).After(*s.EndDate)
}

// CanBeSuspended reports whether a suspension is legal.
func (s Subscription) CanBeSuspended() bool {
	return s.Status == SubscriptionStatusActive
}

// CanBeResumed reports whether the subscription can return to ACTIVE.
func (s Subscription) CanBeResumed() bool {
	return s.Status == SubscriptionStatusSuspended
}

// CanBeCancelled reports whether a cancellation is legal.
func (s Subscription) CanBeCancelled() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusSuspended
}

// CanBeModified reports whether price/discount updates are still meaningful.
func (s Subscription) CanBeModified() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusSuspended
}

// IsForOrder reports whether the subscription originated from an order.
func (s Subscription) IsForOrder() bool {
	return s.OrderID != nil
}

// HasConfiguration reports whether plan-specific settings are present.
func (s Subscription) HasConfiguration() bool {
	return len(s.Configuration) > 0
}

// IsDueForRenewal reports whether the renewal falls due on the given date:
// auto-renew is on and asOf is exactly the next billing date.
func (s Subscription) IsDueForRenewal(asOf time.Time) bool {
	return s.AutoRenew && sameDate(asOf, s.NextBillingDate)
}

// IsPastBillingDate reports whether the given date is past the next billing
// date.
func (s Subscription) IsPastBillingDate(asOf time.Time) bool {
	return dateOnly(asOf).After(s.NextBillingDate)
}

// bump returns a shallow copy with the revision incremented and the update
// timestamp refreshed.
func (s Subscription) bump() Subscription {
	next := s
	next.UpdatedAt = time.Now().UTC()
	next.Revision = s.Revision + 1
	return next
}

// addMonths adds calendar months, clamping the day of month to the end of
// the target month instead of normalizing into the month after.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// dateOnly truncates a timestamp to a UTC calendar date.
func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}
