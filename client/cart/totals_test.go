package cart_test

import (
	"testing"

	"github.com/irsalhamdi/e-commerce-food/client/cart"
	"github.com/shopspring/decimal"
)

func item(name string, original, discount string, qty int) cart.LineItem {
	return cart.LineItem{
		ID:            "id-" + name,
		Name:          name,
		OriginalPrice: decimal.RequireFromString(original),
		DiscountPrice: decimal.RequireFromString(discount),
		Quantity:      qty,
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		items    []cart.LineItem
		count    int
		subtotal string
		savings  string
		fee      string
		waived   bool
		grand    string
	}{
		{
			name:     "below threshold",
			items:    []cart.LineItem{item("thali", "249", "199", 1)},
			count:    1,
			subtotal: "199",
			savings:  "50",
			fee:      "30",
			grand:    "229",
		},
		{
			name:     "above threshold",
			items:    []cart.LineItem{item("pizza", "300", "250", 1)},
			count:    1,
			subtotal: "250",
			savings:  "50",
			fee:      "0",
			waived:   true,
			grand:    "250",
		},
		{
			name:     "quantities multiply",
			items:    []cart.LineItem{item("dosa", "80", "75", 2)},
			count:    2,
			subtotal: "150",
			savings:  "10",
			fee:      "30",
			grand:    "180",
		},
		{
			name:     "exactly at threshold",
			items:    []cart.LineItem{item("biryani", "120", "120", 1), item("lassi", "90", "80", 1)},
			count:    2,
			subtotal: "200",
			savings:  "10",
			fee:      "0",
			waived:   true,
			grand:    "200",
		},
		{
			name:     "fractional prices",
			items:    []cart.LineItem{item("coffee", "89.99", "69.50", 3)},
			count:    3,
			subtotal: "208.5",
			savings:  "61.47",
			fee:      "0",
			waived:   true,
			grand:    "208.5",
		},
		{
			name:     "empty",
			subtotal: "0",
			savings:  "0",
			fee:      "30",
			grand:    "30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cart.Compute(tt.items, cart.DefaultPricing)

			if got.Count != tt.count {
				t.Errorf("count = %d, want %d", got.Count, tt.count)
			}
			if got.DeliveryWaived != tt.waived {
				t.Errorf("waived = %v, want %v", got.DeliveryWaived, tt.waived)
			}
			for _, c := range []struct {
				field string
				got   decimal.Decimal
				want  string
			}{
				{"subtotal", got.Subtotal, tt.subtotal},
				{"savings", got.Savings, tt.savings},
				{"delivery fee", got.DeliveryFee, tt.fee},
				{"grand total", got.GrandTotal, tt.grand},
			} {
				if !c.got.Equal(decimal.RequireFromString(c.want)) {
					t.Errorf("%s = %s, want %s", c.field, c.got, c.want)
				}
			}
		})
	}
}

func TestMinorUnits(t *testing.T) {
	tests := map[string]int64{
		"229":     22900,
		"229.5":   22950,
		"0.125":   13,
		"208.505": 20851,
		"0":       0,
	}
	for in, want := range tests {
		if got := cart.MinorUnits(decimal.RequireFromString(in)); got != want {
			t.Errorf("MinorUnits(%s) = %d, want %d", in, got, want)
		}
	}
}
