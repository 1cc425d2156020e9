package services

import (
	"testing"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPricingTotals(t *testing.T) {
	pricing := NewPricing(&config.Config{FreeShippingThreshold: 999, FlatShippingFee: 49, TaxRate: 0.18})

	tests := []struct {
		name     string
		subtotal float64
		shipping float64
		tax      float64
	}{
		{"below threshold", 500, 49, 90},
		{"just below threshold", 998, 49, 180},
		{"at threshold", 999, 0, 180},
		{"above threshold", 2500, 0, 450},
		{"tax rounds half up", 25, 49, 5},
		{"tax rounds to nearest unit", 10, 49, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := pricing.Totals(decimal.NewFromFloat(tt.subtotal))

			assert.True(t, totals.ShippingFee.Equal(decimal.NewFromFloat(tt.shipping)), "shipping %s", totals.ShippingFee)
			assert.True(t, totals.Tax.Equal(decimal.NewFromFloat(tt.tax)), "tax %s", totals.Tax)
			assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.ShippingFee).Add(totals.Tax)))
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.True(t, LineTotal(19.99, 3).Equal(decimal.RequireFromString("59.97")))
}
