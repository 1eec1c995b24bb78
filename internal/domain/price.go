package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single price observation for a symbol.
type PricePoint struct {
	Timestamp time.Time       // observation time (UTC)
	Price     decimal.Decimal // exact decimal price
}

// PriceSeries is the full price history of one symbol.
// Points are sorted by Timestamp ASC once the series has been saved.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// CanonicalSymbol returns the case-insensitive form used for all store and cache keys.
func CanonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// SortedPoints returns a copy of points ordered by Timestamp ASC.
// Points with equal timestamps keep their input order.
func SortedPoints(points []PricePoint) []PricePoint {
	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// Clone returns a deep copy of the series.
func (s *PriceSeries) Clone() *PriceSeries {
	points := make([]PricePoint, len(s.Points))
	copy(points, s.Points)
	return &PriceSeries{Symbol: s.Symbol, Points: points}
}
