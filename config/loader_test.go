package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsOnly(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "https://api.tripo3d.ai/v2/openapi", cfg.Tripo.BaseURL)
	assert.Equal(t, "v2.5-20250123", cfg.Tripo.Model)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 300*time.Second, cfg.Poll.Timeout)
	assert.Equal(t, "file", cfg.Ledger.Backend)
	assert.Equal(t, int64(5220), cfg.Ledger.InitialBalance)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "argen", cfg.Metrics.Namespace)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  http_port: 9999
poll:
  interval: 2s
  timeout: 60s
ledger:
  backend: redis
  initial_balance: 100
redis:
  addr: redis.internal:6379
store:
  backend: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 60*time.Second, cfg.Poll.Timeout)
	assert.Equal(t, "redis", cfg.Ledger.Backend)
	assert.Equal(t, int64(100), cfg.Ledger.InitialBalance)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9999\n"), 0o644))

	t.Setenv("ARGEN_SERVER_HTTP_PORT", "7777")
	t.Setenv("ARGEN_TRIPO_API_KEY", "tsk_test")
	t.Setenv("ARGEN_POLL_INTERVAL", "1s")
	t.Setenv("ARGEN_RATE_LIMIT_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("ARGEN_LOG_OUTPUT_PATHS", "stdout, /var/log/argen.log")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, "tsk_test", cfg.Tripo.APIKey)
	assert.Equal(t, time.Second, cfg.Poll.Interval)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"stdout", "/var/log/argen.log"}, cfg.Log.OutputPaths)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
}

func TestLoader_ValidatorRejects(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			c.Ledger.Backend = "carrier-pigeon"
			return c.Validate()
		}).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger backend")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Server.HTTPPort = 0 }, true},
		{"write timeout below poll timeout", func(c *Config) { c.Server.WriteTimeout = time.Second }, true},
		{"negative initial balance", func(c *Config) { c.Ledger.InitialBalance = -1 }, true},
		{"redis ledger without addr", func(c *Config) {
			c.Ledger.Backend = "redis"
			c.Redis.Addr = ""
		}, true},
		{"unknown store backend", func(c *Config) { c.Store.Backend = "mongo" }, true},
		{"empty storage dir", func(c *Config) { c.Storage.Dir = "" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"rate limit enabled without rps", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.RequestsPerSecond = 0
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
