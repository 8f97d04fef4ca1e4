// Package money converts between caller-facing decimal amounts and the int64
// minor units the ledger stores. Conversion happens once, at ingestion.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places in one major unit (cents).
const Scale = 2

// Shape limits checked before any rescaling. Rescale cost grows with the
// exponent, so these run first.
const (
	minExponent = -30
	maxExponent = 18
	maxDigits   = 50
)

var errOutOfRange = errors.New("amount out of range")

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinorUnits rounds d to two places, half away from zero, and returns the
// result in minor units. Amounts outside the int64 range are rejected.
func ToMinorUnits(d decimal.Decimal) (int64, error) {
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent || d.NumDigits() > maxDigits {
		return 0, errOutOfRange
	}
	minor := d.Round(Scale).Shift(Scale)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, errOutOfRange
	}
	return minor.IntPart(), nil
}

// FromMinorUnits returns the decimal value of an amount in minor units.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// Format renders minor units with exactly two decimals, e.g. 7450 -> "74.50".
func Format(minor int64) string {
	return FromMinorUnits(minor).StringFixed(Scale)
}
