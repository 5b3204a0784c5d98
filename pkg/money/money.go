// Package money holds the decimal conventions shared by pricing and order
// persistence: amounts stay unrounded between computation steps and are
// rounded to two decimal places only at display or storage boundaries.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds an amount to two decimal places (half up).
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Percent returns rate% of base without intermediate rounding.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// ToCents converts an amount to integer minor units, rounding at the boundary.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromCents converts integer minor units back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}
