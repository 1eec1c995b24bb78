package postgres

import (
	"context"
	"fmt"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/storage"
)

// SeriesStore implements storage.SeriesStore using PostgreSQL.
type SeriesStore struct {
	pool *Pool
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(pool *Pool) *SeriesStore {
	return &SeriesStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// Put replaces all points of the symbol in one transaction.
// Returns ErrInvalidInput for a blank symbol or an empty series.
func (s *SeriesStore) Put(ctx context.Context, series *domain.PriceSeries) error {
	if series == nil || len(series.Points) == 0 {
		return storage.ErrInvalidInput
	}
	symbol := domain.CanonicalSymbol(series.Symbol)
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM price_series WHERE symbol = $1`, symbol); err != nil {
		return fmt.Errorf("delete price series: %w", err)
	}

	query := `
		INSERT INTO price_series (symbol, seq, ts, price)
		VALUES ($1, $2, $3, $4)
	`
	for i, p := range series.Points {
		// NUMERIC is sent in text format to keep full decimal precision.
		_, err := tx.Exec(ctx, query, symbol, i, p.Timestamp.UTC(), p.Price.String())
		if err != nil {
			return fmt.Errorf("insert price point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get retrieves the series of symbol ordered by timestamp ASC.
// Returns ErrNotFound if the symbol has no points.
func (s *SeriesStore) Get(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	symbol = domain.CanonicalSymbol(symbol)
	query := `
		SELECT ts, price::text
		FROM price_series
		WHERE symbol = $1
		ORDER BY ts ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query price series: %w", err)
	}
	defer rows.Close()

	series := &domain.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var p domain.PricePoint
		var price string
		if err := rows.Scan(&p.Timestamp, &price); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		p.Timestamp = p.Timestamp.UTC()
		if p.Price, err = parseNumeric("price", price); err != nil {
			return nil, err
		}
		series.Points = append(series.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price series rows: %w", err)
	}

	if len(series.Points) == 0 {
		return nil, storage.ErrNotFound
	}
	return series, nil
}

// ListSymbols returns all stored symbols in ascending order.
func (s *SeriesStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT symbol FROM price_series ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}
