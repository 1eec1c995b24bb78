// Package stats derives price statistics and normalized ranges from price series.
// All functions are pure: no state, no I/O.
package stats

import (
	"github.com/shopspring/decimal"

	"crypto-recommendation/internal/domain"
)

// Compute calculates the stats summary of series over r.
// Points must be sorted by Timestamp ASC.
// A bounded range keeps points in [from, to). AllTime keeps every point.
// An empty window yields a zero-filled summary.
func Compute(series domain.PriceSeries, r domain.DateRange) domain.StatsSummary {
	points := filterPoints(series.Points, r)
	if len(points) == 0 {
		return domain.ZeroSummary(series.Symbol)
	}

	return domain.StatsSummary{
		Symbol: series.Symbol,
		Oldest: points[0].Price,
		Newest: points[len(points)-1].Price,
		Min:    computeMin(points),
		Max:    computeMax(points),
	}
}

// filterPoints returns the points of r, preserving input order.
func filterPoints(points []domain.PricePoint, r domain.DateRange) []domain.PricePoint {
	if r.IsAllTime() {
		return points
	}

	var result []domain.PricePoint
	for _, p := range points {
		if r.Contains(p.Timestamp) {
			result = append(result, p)
		}
	}
	return result
}

// computeMin returns the lowest price. points must be non-empty.
func computeMin(points []domain.PricePoint) decimal.Decimal {
	lowest := points[0].Price
	for _, p := range points[1:] {
		if p.Price.LessThan(lowest) {
			lowest = p.Price
		}
	}
	return lowest
}

// computeMax returns the highest price. points must be non-empty.
func computeMax(points []domain.PricePoint) decimal.Decimal {
	highest := points[0].Price
	for _, p := range points[1:] {
		if p.Price.GreaterThan(highest) {
			highest = p.Price
		}
	}
	return highest
}
