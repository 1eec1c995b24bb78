// Package main runs the crypto recommendation HTTP server:
// - Loads price CSVs from the data directory, optionally re-loading on a cron schedule
// - Serves stats and normalized-range rankings under /api/crypto-recommend
// - Streams series updates over /ws and exposes /health, /status and /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-recommendation/internal/api"
	"crypto-recommendation/internal/config"
	"crypto-recommendation/internal/ingestion"
	"crypto-recommendation/internal/recommendation"
	"crypto-recommendation/internal/storage"
	chstore "crypto-recommendation/internal/storage/clickhouse"
	"crypto-recommendation/internal/storage/memory"
	"crypto-recommendation/internal/storage/migrations"
	pgstore "crypto-recommendation/internal/storage/postgres"
	"crypto-recommendation/internal/stream"
)

// stores holds the storage implementations used by the service.
type stores struct {
	series storage.SeriesStore
	cache  storage.StatsCache
}

func main() {
	logger := newLogger("server")

	// Load .env file if exists; real env vars win
	if err := config.LoadDotEnv(); err != nil {
		logger.Printf("Warning: %v", err)
	}

	// Flags override file and env configuration when set
	configPath := flag.String("config", os.Getenv("CRYPTO_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address")
	backend := flag.String("storage", "", "Series store backend (memory, postgres, clickhouse)")
	cacheBackend := flag.String("cache", "", "Stats cache backend (memory, postgres)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	dataDir := flag.String("data-dir", "", "Directory with <SYMBOL>_values.csv files")
	reloadCron := flag.String("reload-cron", "", "Cron spec for reloading the data directory (empty disables)")
	precision := flag.Int("precision", 0, "Fractional digits of normalized values")
	workers := flag.Int("workers", 0, "Concurrent stats lookups per ranking query")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "storage":
			cfg.Storage.Backend = *backend
		case "cache":
			cfg.Storage.Cache = *cacheBackend
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		case "clickhouse-dsn":
			cfg.Storage.ClickhouseDSN = *clickhouseDSN
		case "data-dir":
			cfg.Ingestion.DataDir = *dataDir
		case "reload-cron":
			cfg.Ingestion.ReloadCron = *reloadCron
		case "precision":
			cfg.Stats.Precision = int32(*precision)
		case "workers":
			cfg.Stats.Workers = *workers
		}
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	hub := stream.NewHub(stream.HubOptions{Logger: newLogger("stream")})
	defer hub.Close()

	service := recommendation.New(recommendation.Options{
		Series:    st.series,
		Cache:     st.cache,
		Notifier:  hub,
		Precision: &cfg.Stats.Precision,
		Workers:   cfg.Stats.Workers,
		Logger:    newLogger("recommendation"),
	})

	// Initial load. A missing default directory is not fatal; a configured one is.
	loader := ingestion.NewLoader(ingestion.LoaderOptions{
		Dir:    cfg.Ingestion.DataDir,
		Saver:  service,
		Logger: newLogger("loader"),
	})
	if _, err := loader.Run(ctx); err != nil {
		if cfg.Ingestion.DataDir != config.Default().Ingestion.DataDir {
			logger.Fatalf("Failed to load data directory: %v", err)
		}
		logger.Printf("Starting without initial data: %v", err)
	}

	if cfg.Ingestion.ReloadCron != "" {
		scheduler, err := ingestion.NewScheduler(ctx, cfg.Ingestion.ReloadCron, loader, newLogger("loader"))
		if err != nil {
			logger.Fatalf("Failed to create reload scheduler: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewServer(api.Options{
			Service: service,
			Stream:  hub,
			App:     api.AppInfo{Name: cfg.App.Name, Version: cfg.App.Version},
			Logger:  newLogger("api"),
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(cfg.Server.ShutdownTimeout + 5*time.Second):
			logger.Println("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	logger.Printf("Starting HTTP server on %s (storage=%s, cache=%s)", cfg.Server.Addr, cfg.Storage.Backend, cfg.Storage.Cache)
	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	// Wait for in-flight requests before closing stores
	<-stopped
	close(done)
	logger.Println("Shutdown complete")
}

// newLogger creates a component logger in the shared format.
func newLogger(component string) *log.Logger {
	return log.New(os.Stdout, "["+component+"] ", log.LstdFlags|log.Lshortfile)
}

// createStores creates the series store and stats cache selected by cfg.
// Migrations are applied to every SQL backend in use.
func createStores(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (*stores, func(), error) {
	var (
		st      stores
		closers []func()
		pgPool  *pgstore.Pool
		cleanup = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	)

	if cfg.Backend == config.BackendPostgres || cfg.Cache == config.BackendPostgres {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Println("PostgreSQL migrations applied")
		pgPool = pool
	}

	switch cfg.Backend {
	case config.BackendMemory:
		st.series = memory.NewSeriesStore()
	case config.BackendPostgres:
		st.series = pgstore.NewSeriesStore(pgPool)
	case config.BackendClickhouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		logger.Println("ClickHouse migrations applied")
		st.series = chstore.NewSeriesStore(conn)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	switch cfg.Cache {
	case config.BackendMemory:
		st.cache = memory.NewStatsCache()
	case config.BackendPostgres:
		cache, err := pgstore.OpenStatsCache(ctx, pgPool)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open stats cache: %w", err)
		}
		st.cache = cache
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache)
	}

	return &st, cleanup, nil
}
