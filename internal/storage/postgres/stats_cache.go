package postgres

import (
	"context"
	"fmt"

	"github.com/guregu/null/v6"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/storage"
)

// StatsCache implements storage.StatsCache using PostgreSQL.
// Entries live until the next OpenStatsCache or Reset on the same database.
type StatsCache struct {
	pool *Pool
}

// NewStatsCache creates a StatsCache over the existing stats_cache rows.
func NewStatsCache(pool *Pool) *StatsCache {
	return &StatsCache{pool: pool}
}

// OpenStatsCache creates a StatsCache and drops every entry left by a previous process.
// Series may have changed since those entries were computed.
func OpenStatsCache(ctx context.Context, pool *Pool) (*StatsCache, error) {
	c := NewStatsCache(pool)
	if err := c.Reset(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Compile-time interface check.
var _ storage.StatsCache = (*StatsCache)(nil)

// Get retrieves the cached summary. Returns ErrNotFound if absent.
func (c *StatsCache) Get(ctx context.Context, symbol string, r domain.DateRange) (*domain.StatsSummary, error) {
	query := `
		SELECT symbol, range_from, range_to,
			oldest::text, newest::text, min_price::text, max_price::text
		FROM stats_cache
		WHERE cache_key = $1
	`

	var (
		summary                         domain.StatsSummary
		from, to                        null.Time
		oldest, newest, lowest, highest string
	)
	err := c.pool.QueryRow(ctx, query, storage.CacheKey(symbol, r)).Scan(
		&summary.Symbol, &from, &to,
		&oldest, &newest, &lowest, &highest,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cached stats: %w", err)
	}

	// A row written for a different range under the same key is a miss.
	if rowRange(from, to).Key() != r.Key() {
		return nil, storage.ErrNotFound
	}

	if summary.Oldest, err = parseNumeric("oldest", oldest); err != nil {
		return nil, err
	}
	if summary.Newest, err = parseNumeric("newest", newest); err != nil {
		return nil, err
	}
	if summary.Min, err = parseNumeric("min_price", lowest); err != nil {
		return nil, err
	}
	if summary.Max, err = parseNumeric("max_price", highest); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Put upserts the summary under (symbol, r).
func (c *StatsCache) Put(ctx context.Context, symbol string, r domain.DateRange, s *domain.StatsSummary) error {
	symbol = domain.CanonicalSymbol(symbol)
	if s == nil || symbol == "" {
		return storage.ErrInvalidInput
	}

	from, to := rangeColumns(r)
	query := `
		INSERT INTO stats_cache (
			cache_key, symbol, range_from, range_to,
			oldest, newest, min_price, max_price, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (cache_key) DO UPDATE SET
			oldest = EXCLUDED.oldest,
			newest = EXCLUDED.newest,
			min_price = EXCLUDED.min_price,
			max_price = EXCLUDED.max_price,
			computed_at = EXCLUDED.computed_at
	`

	_, err := c.pool.Exec(ctx, query,
		storage.CacheKey(symbol, r), symbol, from, to,
		s.Oldest.String(), s.Newest.String(), s.Min.String(), s.Max.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert cached stats: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *StatsCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.pool.QueryRow(ctx, `SELECT count(*) FROM stats_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached stats: %w", err)
	}
	return n, nil
}

// Reset removes all cached entries.
func (c *StatsCache) Reset(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, `TRUNCATE TABLE stats_cache`); err != nil {
		return fmt.Errorf("truncate stats cache: %w", err)
	}
	return nil
}

// rangeColumns maps r to the nullable range_from/range_to columns.
// AllTime is stored as two NULLs.
func rangeColumns(r domain.DateRange) (null.Time, null.Time) {
	if r.IsAllTime() {
		return null.Time{}, null.Time{}
	}
	return null.TimeFrom(r.From()), null.TimeFrom(r.To())
}

// rowRange rebuilds the range stored in a row.
func rowRange(from, to null.Time) domain.DateRange {
	return domain.NewDateRange(from.Ptr(), to.Ptr())
}
