package domain

import "github.com/shopspring/decimal"

// StatsSummary holds the price statistics of a symbol over one DateRange.
// Oldest and Newest are the temporal endpoints of the window, not extremes.
type StatsSummary struct {
	Symbol string
	Oldest decimal.Decimal
	Newest decimal.Decimal
	Min    decimal.Decimal
	Max    decimal.Decimal
}

// ZeroSummary returns the all-zero summary used for windows without data.
func ZeroSummary(symbol string) StatsSummary {
	return StatsSummary{
		Symbol: symbol,
		Oldest: decimal.Zero,
		Newest: decimal.Zero,
		Min:    decimal.Zero,
		Max:    decimal.Zero,
	}
}

// Equal reports whether two summaries carry the same symbol and values.
func (s StatsSummary) Equal(o StatsSummary) bool {
	return s.Symbol == o.Symbol &&
		s.Oldest.Equal(o.Oldest) &&
		s.Newest.Equal(o.Newest) &&
		s.Min.Equal(o.Min) &&
		s.Max.Equal(o.Max)
}

// NormalizedScore is the normalized price range of a symbol: (max-min)/min.
type NormalizedScore struct {
	Symbol string
	Value  decimal.Decimal
}
