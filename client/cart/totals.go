package cart

import (
	"github.com/irsalhamdi/e-commerce-food/client/backend"
	"github.com/shopspring/decimal"
)

type LineItem = backend.LineItem

type Pricing struct {
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
}

// DefaultPricing charges 30 for delivery below a subtotal of 200.
var DefaultPricing = Pricing{
	DeliveryFee:           decimal.NewFromInt(30),
	FreeDeliveryThreshold: decimal.NewFromInt(200),
}

// Totals are derived from the line items on every read and never stored.
type Totals struct {
	Count          int
	Subtotal       decimal.Decimal
	Savings        decimal.Decimal
	DeliveryFee    decimal.Decimal
	DeliveryWaived bool
	GrandTotal     decimal.Decimal
}

func Compute(items []LineItem, p Pricing) Totals {
	var t Totals
	for _, it := range items {
		q := decimal.NewFromInt(int64(it.Quantity))
		t.Count += it.Quantity
		t.Subtotal = t.Subtotal.Add(it.DiscountPrice.Mul(q))
		t.Savings = t.Savings.Add(it.OriginalPrice.Sub(it.DiscountPrice).Mul(q))
	}

	t.DeliveryWaived = t.Subtotal.GreaterThanOrEqual(p.FreeDeliveryThreshold)
	if !t.DeliveryWaived {
		t.DeliveryFee = p.DeliveryFee
	}
	t.GrandTotal = t.Subtotal.Add(t.DeliveryFee)
	return t
}

// MinorUnits converts an amount to the currency's smallest unit, e.g. 229.50 to
// 22950, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
