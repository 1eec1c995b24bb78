package memory

import (
	"context"
	"sort"
	"sync"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/storage"
)

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceSeries // keyed by canonical symbol
}

// NewSeriesStore creates a new in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		data: make(map[string]*domain.PriceSeries),
	}
}

// Put replaces the full series of s.Symbol.
func (st *SeriesStore) Put(_ context.Context, s *domain.PriceSeries) error {
	if s == nil {
		return storage.ErrInvalidInput
	}
	symbol := domain.CanonicalSymbol(s.Symbol)
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	// Build the replacement outside the lock, then swap it in whole.
	series := s.Clone()
	series.Symbol = symbol

	st.mu.Lock()
	st.data[symbol] = series
	st.mu.Unlock()

	return nil
}

// Get retrieves the series of symbol. Returns ErrNotFound if not exists.
func (st *SeriesStore) Get(_ context.Context, symbol string) (*domain.PriceSeries, error) {
	st.mu.RLock()
	series, ok := st.data[domain.CanonicalSymbol(symbol)]
	st.mu.RUnlock()

	if !ok {
		return nil, storage.ErrNotFound
	}
	return series.Clone(), nil
}

// ListSymbols returns all stored symbols in ascending order.
func (st *SeriesStore) ListSymbols(_ context.Context) ([]string, error) {
	st.mu.RLock()
	symbols := make([]string, 0, len(st.data))
	for symbol := range st.data {
		symbols = append(symbols, symbol)
	}
	st.mu.RUnlock()

	sort.Strings(symbols)
	return symbols, nil
}

var _ storage.SeriesStore = (*SeriesStore)(nil)
