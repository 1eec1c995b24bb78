package storage

import (
	"context"

	"crypto-recommendation/internal/domain"
)

// SeriesStore provides access to per-symbol price histories.
// Symbols are keyed by domain.CanonicalSymbol.
type SeriesStore interface {
	// Put replaces the full series of s.Symbol. Readers observe either the old
	// or the new series, never a mix. Returns ErrInvalidInput on blank symbol.
	Put(ctx context.Context, s *domain.PriceSeries) error

	// Get retrieves the series of symbol, ordered by timestamp ASC.
	// Returns ErrNotFound if the symbol has never been stored.
	Get(ctx context.Context, symbol string) (*domain.PriceSeries, error)

	// ListSymbols returns all stored symbols in ascending order.
	ListSymbols(ctx context.Context) ([]string, error)
}

// StatsCache memoizes stats summaries per (symbol, date range).
// Entries never expire. Concurrent writers of the same key store equal values.
type StatsCache interface {
	// Get retrieves the cached summary. Returns ErrNotFound if absent.
	Get(ctx context.Context, symbol string, r domain.DateRange) (*domain.StatsSummary, error)

	// Put stores the summary under (symbol, r).
	Put(ctx context.Context, symbol string, r domain.DateRange, s *domain.StatsSummary) error

	// Len returns the number of cached entries.
	Len(ctx context.Context) (int, error)
}

// CacheKey derives the cache key of (symbol, r) shared by all StatsCache backends.
func CacheKey(symbol string, r domain.DateRange) string {
	return domain.CanonicalSymbol(symbol) + "-" + r.Key()
}
