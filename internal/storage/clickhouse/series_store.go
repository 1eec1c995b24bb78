package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/storage"
)

// SeriesStore implements storage.SeriesStore using ClickHouse.
//
// Every Put stages the series in price_series under a new version and then
// publishes that version with a single-row insert into series_versions.
// Readers only see published versions, so a replace is atomic however many
// parts the staged rows are split into. Older versions are removed by an
// asynchronous mutation.
type SeriesStore struct {
	conn *Conn
	now  func() time.Time
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// Put writes a new version of the series.
// Returns ErrInvalidInput for a blank symbol or an empty series.
func (s *SeriesStore) Put(ctx context.Context, series *domain.PriceSeries) error {
	if series == nil || len(series.Points) == 0 {
		return storage.ErrInvalidInput
	}
	symbol := domain.CanonicalSymbol(series.Symbol)
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	version := uint64(s.now().UnixNano())

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_series (symbol, version, seq, ts, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, p := range series.Points {
		err = batch.Append(symbol, version, uint32(i), p.Timestamp.UTC(), p.Price)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	if err := s.conn.Exec(ctx,
		`INSERT INTO series_versions (symbol, version) VALUES (?, ?)`,
		symbol, version,
	); err != nil {
		return fmt.Errorf("publish version: %w", err)
	}

	if err := s.conn.Exec(ctx,
		`ALTER TABLE price_series DELETE WHERE symbol = ? AND version < ?`,
		symbol, version,
	); err != nil {
		return fmt.Errorf("delete old versions: %w", err)
	}

	return nil
}

// Get retrieves the latest published version of the series ordered by timestamp ASC.
// Returns ErrNotFound if the symbol has never been stored.
func (s *SeriesStore) Get(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	symbol = domain.CanonicalSymbol(symbol)
	query := `
		SELECT ts, price
		FROM price_series
		WHERE symbol = ? AND version = (
			SELECT max(version) FROM series_versions WHERE symbol = ?
		)
		ORDER BY ts ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, symbol)
	if err != nil {
		return nil, fmt.Errorf("query price series: %w", err)
	}
	defer rows.Close()

	points, err := scanPricePoints(rows)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	return &domain.PriceSeries{Symbol: symbol, Points: points}, nil
}

// ListSymbols returns all stored symbols in ascending order.
func (s *SeriesStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT symbol FROM series_versions ORDER BY symbol`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return symbols, nil
}

// scanPricePoints scans multiple rows.
func scanPricePoints(rows chRows) ([]domain.PricePoint, error) {
	var points []domain.PricePoint

	for rows.Next() {
		var (
			ts    time.Time
			price decimal.Decimal
		)
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, fmt.Errorf("scan price point row: %w", err)
		}
		points = append(points, domain.PricePoint{Timestamp: ts.UTC(), Price: price})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price point rows: %w", err)
	}

	return points, nil
}
