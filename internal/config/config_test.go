package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, int32(16), cfg.Stats.Precision)
	assert.Empty(t, cfg.Ingestion.ReloadCron)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  read_timeout: 5s
storage:
  backend: postgres
  postgres_dsn: postgres://localhost/crypto
ingestion:
  reload_cron: "@every 1h"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, BackendMemory, cfg.Storage.Cache)
	assert.Equal(t, "@every 1h", cfg.Ingestion.ReloadCron)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "stats:\n  precision: 8\n  workers: 2\n")
	t.Setenv("CRYPTO_STATS_PRECISION", "10")
	t.Setenv("CRYPTO_INGESTION_DATA_DIR", "/srv/prices")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int32(10), cfg.Stats.Precision)
	assert.Equal(t, 2, cfg.Stats.Workers)
	assert.Equal(t, "/srv/prices", cfg.Ingestion.DataDir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]\n"))
	assert.Error(t, err)

	t.Setenv("CRYPTO_STATS_WORKERS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown backend":        func(c *Config) { c.Storage.Backend = "redis" },
		"unknown cache":          func(c *Config) { c.Storage.Cache = "clickhouse" },
		"postgres without dsn":   func(c *Config) { c.Storage.Backend = BackendPostgres },
		"cache without dsn":      func(c *Config) { c.Storage.Cache = BackendPostgres },
		"clickhouse without dsn": func(c *Config) { c.Storage.Backend = BackendClickhouse },
		"bad cron":               func(c *Config) { c.Ingestion.ReloadCron = "every hour" },
		"negative precision":     func(c *Config) { c.Stats.Precision = -1 },
		"zero workers":           func(c *Config) { c.Stats.Workers = 0 },
		"empty addr":             func(c *Config) { c.Server.Addr = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CRYPTO_SERVER_ADDR=:7070\n"), 0o644))
	t.Setenv("CRYPTO_SERVER_ADDR", "")
	require.NoError(t, os.Unsetenv("CRYPTO_SERVER_ADDR"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}
