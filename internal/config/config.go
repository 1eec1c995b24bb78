// Package config loads the server configuration.
//
// Values are layered in this order, later layers winning:
//
//  1. Default()
//  2. an optional YAML file
//  3. CRYPTO_* environment variables (a .env file may seed them)
//  4. command-line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"crypto-recommendation/internal/ingestion"
)

// EnvPrefix prefixes every environment variable, e.g. CRYPTO_STORAGE_BACKEND.
const EnvPrefix = "CRYPTO"

// Storage backends.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `yaml:"app" envconfig:"APP"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Ingestion IngestionConfig `yaml:"ingestion" envconfig:"INGESTION"`
	Stats     StatsConfig     `yaml:"stats" envconfig:"STATS"`
}

// AppConfig identifies the running service on the status endpoint.
type AppConfig struct {
	Name    string `yaml:"name" envconfig:"NAME"`
	Version string `yaml:"version" envconfig:"VERSION"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// StorageConfig selects the series store and stats cache backends.
type StorageConfig struct {
	Backend       string `yaml:"backend" envconfig:"BACKEND"` // memory|postgres|clickhouse
	Cache         string `yaml:"cache" envconfig:"CACHE"`     // memory|postgres
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" envconfig:"CLICKHOUSE_DSN"`
}

// IngestionConfig controls CSV loading.
type IngestionConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReloadCron string `yaml:"reload_cron" envconfig:"RELOAD_CRON"` // empty disables reloads
}

// StatsConfig tunes the recommendation service.
type StatsConfig struct {
	Precision int32 `yaml:"precision" envconfig:"PRECISION"` // fractional digits of normalized values
	Workers   int   `yaml:"workers" envconfig:"WORKERS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "crypto-recommendation",
			Version: "dev",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Cache:   BackendMemory,
		},
		Ingestion: IngestionConfig{
			DataDir: "data",
		},
		Stats: StatsConfig{
			Precision: 16,
			Workers:   4,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and CRYPTO_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set are kept. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres, BackendClickhouse:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	switch c.Storage.Cache {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("storage.cache: unknown backend %q", c.Storage.Cache)
	}

	if c.usesPostgres() && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
	}
	if c.Storage.Backend == BackendClickhouse && c.Storage.ClickhouseDSN == "" {
		return fmt.Errorf("storage.clickhouse_dsn is required for the clickhouse backend")
	}

	if c.Ingestion.ReloadCron != "" {
		if err := ingestion.ValidateSpec(c.Ingestion.ReloadCron); err != nil {
			return fmt.Errorf("ingestion.reload_cron: %w", err)
		}
	}

	if c.Stats.Precision < 0 {
		return fmt.Errorf("stats.precision must not be negative")
	}
	if c.Stats.Workers <= 0 {
		return fmt.Errorf("stats.workers must be positive")
	}
	return nil
}

// usesPostgres reports whether any component is backed by Postgres.
func (c *Config) usesPostgres() bool {
	return c.Storage.Backend == BackendPostgres || c.Storage.Cache == BackendPostgres
}
