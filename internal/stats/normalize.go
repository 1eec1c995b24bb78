package stats

import (
	"github.com/shopspring/decimal"

	"crypto-recommendation/internal/domain"
)

// DefaultPrecision is the number of fractional digits kept by Normalize.
const DefaultPrecision int32 = 16

var two = decimal.NewFromInt(2)

// Normalize returns (max-min)/min of summary rounded half-to-even at DefaultPrecision.
// Returns zero when min is zero.
func Normalize(summary domain.StatsSummary) decimal.Decimal {
	return NormalizeWithPrecision(summary, DefaultPrecision)
}

// NormalizeWithPrecision is Normalize with an explicit number of fractional digits.
func NormalizeWithPrecision(summary domain.StatsSummary, places int32) decimal.Decimal {
	if summary.Min.IsZero() {
		return decimal.Zero
	}
	return divRoundHalfEven(summary.Max.Sub(summary.Min), summary.Min, places)
}

// divRoundHalfEven divides num by den keeping places fractional digits,
// rounding half-to-even. den must be non-zero.
func divRoundHalfEven(num, den decimal.Decimal, places int32) decimal.Decimal {
	// q is truncated toward zero, r carries the sign of num.
	q, r := num.QuoRem(den, places)
	if r.IsZero() {
		return q
	}

	// Compare the discarded remainder with half of one unit in the last place.
	unit := decimal.New(1, -places)
	twiceRem := r.Abs().Mul(two)
	half := den.Abs().Mul(unit)

	switch twiceRem.Cmp(half) {
	case -1:
		return q
	case 0:
		if q.Shift(places).Mod(two).IsZero() {
			return q
		}
	}

	if num.Sign()*den.Sign() < 0 {
		return q.Sub(unit)
	}
	return q.Add(unit)
}
