// Package recommendation serves price statistics and normalized-range rankings.
// It coordinates: series store → stats cache → calculator → normalization.
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/observability"
	"crypto-recommendation/internal/stats"
	"crypto-recommendation/internal/storage"
)

// DefaultWorkers bounds concurrent per-symbol stats lookups in ranking queries.
const DefaultWorkers = 4

// Notifier receives a symbol's all-time stats after its series is saved.
type Notifier interface {
	SeriesSaved(symbol string, summary domain.StatsSummary)
}

// Service is the recommendation engine.
type Service struct {
	series    storage.SeriesStore
	cache     storage.StatsCache
	notifier  Notifier
	precision int32
	workers   int
	logger    *log.Logger
}

// Options for creating Service.
type Options struct {
	// Required stores
	Series storage.SeriesStore
	Cache  storage.StatsCache

	// Optional
	Notifier  Notifier    // nil disables notifications
	Precision *int32      // fractional digits of normalized values; nil uses stats.DefaultPrecision
	Workers   int         // ranking fan-out; <= 0 uses DefaultWorkers
	Logger    *log.Logger // nil discards logs
}

// New creates a new Service.
func New(opts Options) *Service {
	precision := stats.DefaultPrecision
	if opts.Precision != nil {
		precision = *opts.Precision
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Service{
		series:    opts.Series,
		cache:     opts.Cache,
		notifier:  opts.Notifier,
		precision: precision,
		workers:   workers,
		logger:    logger,
	}
}

// SaveSeries validates, sorts and stores the full price history of symbol,
// replacing any previous one. The all-time stats entry is recomputed eagerly.
func (s *Service) SaveSeries(ctx context.Context, symbol string, points []domain.PricePoint) error {
	if strings.TrimSpace(symbol) == "" {
		return &ValidationError{Field: "symbol", Message: "Crypto symbol cannot be empty."}
	}
	if len(points) == 0 {
		return &ValidationError{Field: "prices", Message: "Crypto price list cannot be empty."}
	}

	series := &domain.PriceSeries{
		Symbol: domain.CanonicalSymbol(symbol),
		Points: domain.SortedPoints(points),
	}
	if err := s.series.Put(ctx, series); err != nil {
		return fmt.Errorf("store series %s: %w", series.Symbol, err)
	}
	observability.RecordSeriesSaved(len(series.Points))

	// Pre-warm: the first all-time query after a save is always a cache hit.
	summary, err := s.computeAndStore(ctx, series, domain.AllTime())
	if err != nil {
		return fmt.Errorf("prewarm all-time stats %s: %w", series.Symbol, err)
	}

	s.logger.Printf("Saved %s: %d points", series.Symbol, len(series.Points))
	if s.notifier != nil {
		s.notifier.SeriesSaved(series.Symbol, *summary)
	}
	return nil
}

// GetStats returns the stats of symbol over r, computing and caching them on a miss.
// Returns ErrSymbolNotSupported if symbol has no series.
func (s *Service) GetStats(ctx context.Context, symbol string, r domain.DateRange) (*domain.StatsSummary, error) {
	symbol = domain.CanonicalSymbol(symbol)

	cached, err := s.cache.Get(ctx, symbol, r)
	if err == nil {
		observability.RecordCacheHit()
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get cached stats %s %s: %w", symbol, r, err)
	}
	observability.RecordCacheMiss()

	series, err := s.loadSeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.computeAndStore(ctx, series, r)
}

// GetSpecificStats returns the stats of symbol between two optional calendar days.
// toDay is exclusive. Unless both days are given the whole history is used.
// Returns ErrSymbolNotSupported without touching the cache if symbol is unknown.
func (s *Service) GetSpecificStats(ctx context.Context, symbol string, fromDay, toDay *time.Time) (*domain.StatsSummary, error) {
	symbol = domain.CanonicalSymbol(symbol)
	if _, err := s.loadSeries(ctx, symbol); err != nil {
		if errors.Is(err, ErrSymbolNotSupported) {
			s.logger.Printf("Crypto %s not supported", symbol)
		}
		return nil, err
	}
	return s.GetStats(ctx, symbol, domain.DaysRange(fromDay, toDay))
}

// RankAllSymbolsDescending returns the normalized score of every known symbol
// between two optional calendar days, highest first. Equal scores are ordered by symbol.
func (s *Service) RankAllSymbolsDescending(ctx context.Context, fromDay, toDay *time.Time) ([]domain.NormalizedScore, error) {
	start := time.Now()
	defer func() {
		observability.RecordRanking("descending", time.Since(start).Seconds())
	}()

	scores, err := s.scoreAll(ctx, domain.DaysRange(fromDay, toDay))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if c := scores[i].Value.Cmp(scores[j].Value); c != 0 {
			return c > 0
		}
		return scores[i].Symbol < scores[j].Symbol
	})
	return scores, nil
}

// HighestScoringSymbolForDay returns the symbol with the highest normalized score
// within the calendar day of day. The first symbol in store order wins ties.
// Returns an empty symbol with zero value if no score is positive.
func (s *Service) HighestScoringSymbolForDay(ctx context.Context, day time.Time) (domain.NormalizedScore, error) {
	start := time.Now()
	defer func() {
		observability.RecordRanking("highest_by_day", time.Since(start).Seconds())
	}()

	scores, err := s.scoreAll(ctx, domain.DayRange(day))
	if err != nil {
		return domain.NormalizedScore{}, err
	}

	best := domain.NormalizedScore{Symbol: "", Value: decimal.Zero}
	for _, score := range scores {
		if score.Value.GreaterThan(best.Value) {
			best = score
		}
	}
	return best, nil
}

// Symbols returns all supported symbols in ascending order.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	symbols, err := s.series.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return symbols, nil
}

// Status summarizes the service state.
type Status struct {
	Symbols      int `json:"symbols"`
	CacheEntries int `json:"cache_entries"`
}

// Status returns the number of symbols and cache entries.
func (s *Service) Status(ctx context.Context) (Status, error) {
	symbols, err := s.Symbols(ctx)
	if err != nil {
		return Status{}, err
	}
	entries, err := s.cache.Len(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("cache size: %w", err)
	}
	return Status{Symbols: len(symbols), CacheEntries: entries}, nil
}

// scoreAll computes the normalized score of every symbol over r.
// The result is in store enumeration order.
func (s *Service) scoreAll(ctx context.Context, r domain.DateRange) ([]domain.NormalizedScore, error) {
	symbols, err := s.Symbols(ctx)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.NormalizedScore, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, symbol := range symbols {
		g.Go(func() error {
			summary, err := s.GetStats(gctx, symbol, r)
			if err != nil {
				return fmt.Errorf("score %s: %w", symbol, err)
			}
			scores[i] = domain.NormalizedScore{
				Symbol: symbol,
				Value:  stats.NormalizeWithPrecision(*summary, s.precision),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// loadSeries fetches the series of a canonical symbol.
func (s *Service) loadSeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	series, err := s.series.Get(ctx, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotSupportedError{Symbol: symbol}
		}
		return nil, fmt.Errorf("load series %s: %w", symbol, err)
	}
	return series, nil
}

// computeAndStore computes the stats of series over r and caches them.
func (s *Service) computeAndStore(ctx context.Context, series *domain.PriceSeries, r domain.DateRange) (*domain.StatsSummary, error) {
	summary := stats.Compute(*series, r)
	observability.RecordStatsComputed()

	if err := s.cache.Put(ctx, series.Symbol, r, &summary); err != nil {
		return nil, fmt.Errorf("cache stats %s %s: %w", series.Symbol, r, err)
	}
	return &summary, nil
}
