package services

import (
	"github.com/mobirepair/mobirepair-api/config"
	"github.com/shopspring/decimal"
)

// Pricing computes order charges from the subtotal
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// OrderTotals holds the computed charges of an order
type OrderTotals struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// NewPricing reads the shipping and tax settings from cfg
func NewPricing(cfg *config.Config) Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		FlatShippingFee:       decimal.NewFromFloat(cfg.FlatShippingFee),
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
	}
}

// LineTotal is unitPrice times quantity
func LineTotal(unitPrice float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
}

// Totals applies the shipping threshold and rounds tax to whole currency units
func (p Pricing) Totals(subtotal decimal.Decimal) OrderTotals {
	shipping := p.FlatShippingFee
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(0)

	return OrderTotals{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Total:       subtotal.Add(shipping).Add(tax),
	}
}
