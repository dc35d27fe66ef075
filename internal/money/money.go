package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToCents converts a decimal amount ("42.50") into cents, rounding half away
// from zero to the nearest cent.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents converts cents back into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents with exactly two decimal places.
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}
