package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed-point scales shared by every amount in the simulation.
var (
	// WAD is 1.0 in 18-decimal fixed point.
	WAD = decimal.New(1, 18)
	// BPS is 1.0 expressed in basis points.
	BPS = decimal.NewFromInt(10000)
)

// Units converts a whole number of units into its 18-decimal fixed point form.
func Units(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Mul(WAD)
}

// ParseUnits parses a human amount like "1.5" into 18-decimal fixed point.
// Precision beyond 18 decimals is truncated.
func ParseUnits(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: must not be negative", s)
	}
	return d.Shift(18).Truncate(0), nil
}

// FormatUnits renders an 18-decimal fixed point value in whole units.
func FormatUnits(d decimal.Decimal) string {
	return d.Shift(-18).String()
}

// MulDivFloor computes floor(a*b/denominator) for non-negative integer operands.
// The denominator must be non-zero.
func MulDivFloor(a, b, denominator decimal.Decimal) decimal.Decimal {
	q, _ := a.Mul(b).QuoRem(denominator, 0)
	return q
}

// MulDivCeil computes ceil(a*b/denominator) for non-negative integer operands.
// The denominator must be non-zero.
func MulDivCeil(a, b, denominator decimal.Decimal) decimal.Decimal {
	q, r := a.Mul(b).QuoRem(denominator, 0)
	if !r.IsZero() {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q
}

// Clamp bounds v to the closed interval [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
