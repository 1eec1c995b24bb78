// Package ingestion loads price series from CSV files into the recommendation service.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/observability"
)

// SeriesSaver stores a symbol's full price history.
type SeriesSaver interface {
	SaveSeries(ctx context.Context, symbol string, points []domain.PricePoint) error
}

// Loader loads a data directory and saves every series it contains.
type Loader struct {
	dir    string
	saver  SeriesSaver
	logger *log.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Dir    string
	Saver  SeriesSaver
	Logger *log.Logger
}

// LoadResult summarizes one directory load.
type LoadResult struct {
	Symbols []string // saved symbols, ascending
	Points  int      // total points saved
}

// NewLoader creates a new Loader.
func NewLoader(opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Loader{
		dir:    opts.Dir,
		saver:  opts.Saver,
		logger: logger,
	}
}

// Run loads the data directory and saves each symbol's series.
// Any read or save failure aborts the run.
func (l *Loader) Run(ctx context.Context) (*LoadResult, error) {
	l.logger.Printf("Start loading of crypto data from %s", l.dir)

	data, err := LoadDirectory(ctx, l.dir)
	if err != nil {
		observability.RecordIngestionError("read")
		l.logger.Printf("Error in loading of crypto data: %v", err)
		return nil, err
	}

	symbols := make([]string, 0, len(data))
	for symbol := range data {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	result := &LoadResult{}
	for _, symbol := range symbols {
		points := data[symbol]
		if err := l.saver.SaveSeries(ctx, symbol, points); err != nil {
			observability.RecordIngestionError("save")
			return nil, fmt.Errorf("save %s: %w", symbol, err)
		}
		result.Symbols = append(result.Symbols, symbol)
		result.Points += len(points)
	}

	observability.UpdateLastLoad(time.Now().Unix())
	l.logger.Printf("Crypto data loaded. List of cryptos: %v", result.Symbols)
	return result, nil
}
