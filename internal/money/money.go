// Package money provides the high-precision decimal primitives shared by
// every component that touches prices, quantities, or balances.
package money

import (
	"github.com/shopspring/decimal"
)

// Decimal is the shared money/quantity type. Every balance, price, and
// quantity in the engine is a Decimal; float64 is reserved for indicator
// math, which tolerates NaN and doesn't need exactness.
type Decimal = decimal.Decimal

// Zero is the canonical zero value, exported for comparisons and defaults.
var Zero = decimal.Zero

// New builds a Decimal from a float64. Used at boundaries (JSON payloads,
// exchange feeds) where the source value is already a float.
func New(f float64) Decimal {
	return decimal.NewFromFloat(f)
}

// Round rounds d to places decimal digits, halves away from zero. places
// may be negative to round to a power of ten above the decimal point.
func Round(d Decimal, places int32) Decimal {
	return d.Round(places)
}

// RoundDown truncates towards zero at places decimal digits. Used for
// live order quantities/prices where overstating a commitment would be
// unsafe (round the amount the account is obligated to cover downward).
func RoundDown(d Decimal, places int32) Decimal {
	return d.Truncate(places)
}

// IsZero reports whether d is exactly zero.
func IsZero(d Decimal) bool {
	return d.IsZero()
}

// IsNegative reports whether d is strictly less than zero.
func IsNegative(d Decimal) bool {
	return d.IsNegative()
}
