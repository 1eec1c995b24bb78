package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"crypto-recommendation/internal/domain"
)

// FileSuffix marks price files in a data directory: <SYMBOL>_values.csv.
const FileSuffix = "_values.csv"

// Errors returned by CSV parsing.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")

	// ErrDuplicateSymbol is returned when two files in a directory name the same symbol.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
)

// Columns of a price file header: timestamp,symbol,price.
const (
	columnTimestamp = "timestamp"
	columnPrice     = "price"
)

// SymbolFromFileName returns the symbol encoded in a price file name,
// or false if name lacks FileSuffix (case-insensitive).
func SymbolFromFileName(name string) (string, bool) {
	if len(name) <= len(FileSuffix) || !strings.EqualFold(name[len(name)-len(FileSuffix):], FileSuffix) {
		return "", false
	}
	return name[:len(name)-len(FileSuffix)], true
}

// ParseCSV reads price points from r.
// The first record is the header; timestamp is epoch milliseconds (UTC).
func ParseCSV(r io.Reader) ([]domain.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	tsIdx, priceIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnTimestamp:
			tsIdx = i
		case columnPrice:
			priceIdx = i
		}
	}
	if tsIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, columnTimestamp)
	}
	if priceIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, columnPrice)
	}

	var points []domain.PricePoint
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// csv.ParseError carries its own line number.
			return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}

		ms, err := strconv.ParseInt(strings.TrimSpace(record[tsIdx]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: timestamp %q", ErrMalformedRow, line, record[tsIdx])
		}
		price, err := decimal.NewFromString(strings.TrimSpace(record[priceIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: price %q", ErrMalformedRow, line, record[priceIdx])
		}

		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(ms).UTC(),
			Price:     price,
		})
	}

	return points, nil
}

// LoadFile reads price points from a CSV file.
func LoadFile(path string) ([]domain.PricePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	points, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return points, nil
}

// LoadDirectory reads every price file in dir, keyed by canonical symbol.
// Files are parsed concurrently; the first failure aborts the load.
// Two files whose symbols differ only in case fail with ErrDuplicateSymbol.
func LoadDirectory(ctx context.Context, dir string) (map[string][]domain.PricePoint, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	files := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := SymbolFromFileName(entry.Name())
		if !ok {
			continue
		}
		symbol := domain.CanonicalSymbol(name)
		if prev, dup := files[symbol]; dup {
			return nil, fmt.Errorf("%w: %s in %s and %s",
				ErrDuplicateSymbol, symbol, filepath.Base(prev), entry.Name())
		}
		files[symbol] = filepath.Join(dir, entry.Name())
	}

	var (
		mu     sync.Mutex
		result = make(map[string][]domain.PricePoint, len(files))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for symbol, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			points, err := LoadFile(path)
			if err != nil {
				return err
			}
			mu.Lock()
			result[symbol] = points
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
