package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

const (
	MaxItemQuantity  = 50
	MaxItemsPerOrder = 50

	// storage precision of tax and discount columns
	amountPlaces = 6
)

var DefaultTaxRate = decimal.RequireFromString("0.19")

type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// CalculateTotals rounds once, on the final total. The total is computed
// from the exact tax and discount; only the stored amounts are cut to
// column precision.
func CalculateTotals(items []models.OrderItem, taxRate, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].LineTotal())
	}

	discount = clampDiscount(discount, subtotal)
	tax := subtotal.Mul(taxRate)

	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax.Round(amountPlaces),
		DiscountAmount: discount.Round(amountPlaces),
		TotalAmount:    utils.RoundMoney(subtotal.Add(tax).Sub(discount)),
	}
}

func clampDiscount(discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// ResolveDiscount computes what d takes off subtotal at time now.
func ResolveDiscount(subtotal decimal.Decimal, d models.Discount, now time.Time) (decimal.Decimal, error) {
	switch {
	case !d.IsActive:
		return decimal.Zero, invalid("discount_code", "discount %s is not active", d.Code)
	case d.ValidFrom != nil && now.Before(*d.ValidFrom):
		return decimal.Zero, invalid("discount_code", "discount %s is not valid yet", d.Code)
	case d.ValidUntil != nil && now.After(*d.ValidUntil):
		return decimal.Zero, invalid("discount_code", "discount %s has expired", d.Code)
	case d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit:
		return decimal.Zero, invalid("discount_code", "discount %s has reached its usage limit", d.Code)
	case subtotal.LessThan(d.MinOrderAmount):
		return decimal.Zero, invalid("discount_code", "order subtotal must be at least %s to use %s", d.MinOrderAmount.StringFixed(2), d.Code)
	}
	return discountValue(subtotal, d)
}

// discountValue is what d takes off subtotal, ignoring validity and usage.
func discountValue(subtotal decimal.Decimal, d models.Discount) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch d.ValueType {
	case models.DiscountPercentage:
		if d.Value.IsNegative() || d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, invalid("discount_code", "discount %s has an invalid percentage", d.Code)
		}
		amount = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
	case models.DiscountFixed:
		amount = d.Value
	default:
		return decimal.Zero, invalid("discount_code", "discount %s has unknown type %q", d.Code, d.ValueType)
	}

	if d.MaxDiscountAmount != nil && amount.GreaterThan(*d.MaxDiscountAmount) {
		amount = *d.MaxDiscountAmount
	}
	return clampDiscount(amount, subtotal), nil
}

// OrderBuilder assembles an order from catalog items. Errors are collected
// and reported by Build so call sites can chain.
type OrderBuilder struct {
	order    models.Order
	discount decimal.Decimal
	err      error
}

func NewOrderBuilder(orderType models.OrderType) *OrderBuilder {
	b := &OrderBuilder{
		order: models.Order{
			OrderType: orderType,
			Status:    models.OrderStatusPending,
			Version:   1,
		},
	}
	if !orderType.Valid() {
		b.err = invalid("order_type", "must be one of dine_in, takeaway, delivery")
	}
	return b
}

func (b *OrderBuilder) ForCustomer(id *uint) *OrderBuilder {
	b.order.CustomerID = id
	return b
}

func (b *OrderBuilder) AtTable(id *uint) *OrderBuilder {
	b.order.TableID = id
	return b
}

func (b *OrderBuilder) WithInstructions(s string) *OrderBuilder {
	b.order.SpecialInstructions = s
	return b
}

// AddItem snapshots the item's current price.
func (b *OrderBuilder) AddItem(item models.MenuItem, quantity int, customizations []models.Customization, instructions string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if quantity < 1 || quantity > MaxItemQuantity {
		b.err = invalid("quantity", "must be between 1 and %d", MaxItemQuantity)
		return b
	}
	if len(b.order.Items) >= MaxItemsPerOrder {
		b.err = invalid("items", "an order holds at most %d items", MaxItemsPerOrder)
		return b
	}

	line := models.OrderItem{
		MenuItemID:          item.ID,
		Quantity:            quantity,
		UnitPrice:           item.Price,
		Customizations:      customizations,
		SpecialInstructions: instructions,
		Status:              models.OrderStatusPending,
	}
	line.TotalPrice = line.LineTotal()
	b.order.Items = append(b.order.Items, line)
	return b
}

func (b *OrderBuilder) WithDiscount(code string, amount decimal.Decimal) *OrderBuilder {
	if code != "" {
		b.order.DiscountCode = &code
	}
	b.discount = amount
	return b
}

func (b *OrderBuilder) Subtotal() decimal.Decimal {
	return CalculateTotals(b.order.Items, decimal.Zero, decimal.Zero).Subtotal
}

func (b *OrderBuilder) Build(taxRate decimal.Decimal) (*models.Order, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.order.Items) == 0 {
		return nil, invalid("items", "an order needs at least one item")
	}

	totals := CalculateTotals(b.order.Items, taxRate, b.discount)
	order := b.order
	order.Items = append([]models.OrderItem(nil), b.order.Items...)
	order.Subtotal = totals.Subtotal
	order.TaxAmount = totals.TaxAmount
	order.DiscountAmount = totals.DiscountAmount
	order.TotalAmount = totals.TotalAmount
	return &order, nil
}
