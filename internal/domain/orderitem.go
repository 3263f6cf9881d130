package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the VAT percentage applied when the caller does not
// supply one.
var DefaultTaxRate = decimal.RequireFromString("23.00")

// OrderItem is one line of an order. It is an immutable value: every mutator
// returns a new item with the revision bumped and leaves the receiver intact,
// so callers can hold snapshots safely across goroutines.
type OrderItem struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	ItemType       OrderItemType
	ItemCode       string
	ItemName       string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxRate        decimal.Decimal
	Status         OrderItemStatus
	ActivationDate *time.Time
	ExpiryDate     *time.Time
	Revision       int
}

// NewOrderItem creates a new order item in PENDING status with revision 1.
func NewOrderItem(
	productID uuid.UUID,
	itemType OrderItemType,
	itemCode string,
	itemName string,
	quantity int,
	unitPrice decimal.Decimal,
	discountAmount decimal.Decimal,
	taxRate decimal.Decimal,
) (OrderItem, error) {
	const op = "orderitem.create"

	if productID == uuid.Nil {
		return OrderItem{}, Invalid(op, "Product ID is required")
	}
	if quantity <= 0 {
		return OrderItem{}, Invalid(op, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return OrderItem{}, Invalid(op, "Unit price cannot be negative")
	}
	if discountAmount.IsNegative() {
		return OrderItem{}, Invalid(op, "Discount amount cannot be negative")
	}
	if itemType == "" {
		itemType = OrderItemTypeProduct
	}

	return OrderItem{
		ID:             uuid.New(),
		ProductID:      productID,
		ItemType:       itemType,
		ItemCode:       itemCode,
		ItemName:       itemName,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		DiscountAmount: discountAmount,
		TaxRate:        taxRate,
		Status:         OrderItemStatusPending,
		Revision:       1,
	}, nil
}

// NewProductItem is the short form of NewOrderItem: a PRODUCT item with no
// discount and the default tax rate.
func NewProductItem(productID uuid.UUID, itemName string, quantity int, unitPrice decimal.Decimal) (OrderItem, error) {
	return NewOrderItem(productID, OrderItemTypeProduct, "", itemName, quantity, unitPrice, decimal.Zero, DefaultTaxRate)
}

// TotalPrice is quantity x unit price, before discount.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NetAmount is the total price after discount.
func (i OrderItem) NetAmount() decimal.Decimal {
	return i.TotalPrice().Sub(i.DiscountAmount)
}

// TaxAmount is the tax owed on the net amount.
func (i OrderItem) TaxAmount() decimal.Decimal {
	return i.NetAmount().Mul(i.TaxRate).Div(decimal.NewFromInt(100))
}

// FinalAmount is the tax-inclusive, discount-applied amount owed for this item.
func (i OrderItem) FinalAmount() decimal.Decimal {
	return i.NetAmount().Add(i.TaxAmount())
}

// UpdateQuantity returns a copy of the item with the new quantity.
// Quantity is only mutable while the item is PENDING.
func (i OrderItem) UpdateQuantity(quantity int) (OrderItem, error) {
	const op = "orderitem.updateQuantity"

	if quantity <= 0 {
		return OrderItem{}, Invalid(op, "Quantity must be positive")
	}
	if i.Status != OrderItemStatusPending {
		return OrderItem{}, InvalidState(op, "Cannot update quantity of non-pending item")
	}

	next := i
	next.Quantity = quantity
	next.Revision = i.Revision + 1
	return next, nil
}

// UpdateUnitPrice returns a copy of the item with the new unit price.
// Price is only mutable while the item is PENDING.
func (i OrderItem) UpdateUnitPrice(unitPrice decimal.Decimal) (OrderItem, error) {
	const op = "orderitem.updateUnitPrice"

	if unitPrice.IsNegative() {
		return OrderItem{}, Invalid(op, "Unit price cannot be negative")
	}
	if i.Status != OrderItemStatusPending {
		return OrderItem{}, InvalidState(op, "Cannot update price of non-pending item")
	}

	next := i
	next.UnitPrice = unitPrice
	next.Revision = i.Revision + 1
	return next, nil
}

// ChangeStatus returns a copy of the item in the new status. Transitioning
// into ACTIVE stamps the activation date.
func (i OrderItem) ChangeStatus(newStatus OrderItemStatus) OrderItem {
	next := i
	next.Status = newStatus
	if newStatus == OrderItemStatusActive {
		now := time.Now().UTC()
		next.ActivationDate = &now
	}
	next.Revision = i.Revision + 1
	return next
}

// IsActive reports whether the item has been activated.
func (i OrderItem) IsActive() bool {
	return i.Status == OrderItemStatusActive
}

// CanBeActivated reports whether the item may still be activated.
func (i OrderItem) CanBeActivated() bool {
	return i.Status == OrderItemStatusPending
}
