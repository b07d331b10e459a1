// Package pricing derives an item's selling price from its list price and
// discount. It is applied on catalog writes only; a sale always uses the
// selling price already stored on the item.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits the store keeps for money.
const Places = 2

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// DeriveSellingPrice returns original × (1 − discount/100) when discount is
// positive, and explicit otherwise. A positive discount always wins over an
// explicit price.
func DeriveSellingPrice(original, discount, explicit decimal.Decimal) decimal.Decimal {
	if discount.IsPositive() {
		factor := one.Sub(discount.Div(hundred))
		return original.Mul(factor).Round(Places)
	}
	return explicit.Round(Places)
}

// ValidDiscount reports whether discount is within [0, 100].
func ValidDiscount(discount decimal.Decimal) bool {
	return !discount.IsNegative() && discount.LessThanOrEqual(hundred)
}
