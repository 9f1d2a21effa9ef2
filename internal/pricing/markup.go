// Package pricing computes storefront selling prices from gateway cost
// prices. Amounts are rupiah, handled as decimals and rounded up to whole
// units — the storefront never undercharges by a fraction.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// categoryMarkupPercent overrides the default markup for categories with
// thinner margins. Keys are gateway category names.
var categoryMarkupPercent = map[string]decimal.Decimal{
	"Pulsa": decimal.NewFromInt(3),
	"Data":  decimal.NewFromInt(3),
}

// SellingPrice applies the percentage markup for the product's category
// (falling back to defaultPercent) and rounds up to a whole rupiah.
func SellingPrice(cost decimal.Decimal, category string, defaultPercent decimal.Decimal) decimal.Decimal {
	pct := defaultPercent
	if override, ok := categoryMarkupPercent[category]; ok {
		pct = override
	}
	markup := cost.Mul(pct).Div(hundred)
	return cost.Add(markup).Ceil()
}
