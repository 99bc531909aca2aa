package config

import (
	"time"

	"github.com/hamadhk7/3D-AR-GENERATOR/generation"
	"github.com/hamadhk7/3D-AR-GENERATOR/ledger"
	"github.com/hamadhk7/3D-AR-GENERATOR/tripo"
)

// DefaultConfig returns the default configuration. Every section can be
// overridden from YAML or the environment.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Tripo:     DefaultTripoConfig(),
		Poll:      DefaultPollConfig(),
		Ledger:    DefaultLedgerConfig(),
		Store:     DefaultStoreConfig(),
		Storage:   DefaultStorageConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		RateLimit: DefaultRateLimitConfig(),
	}
}

// DefaultServerConfig returns the default HTTP server configuration. The
// write timeout leaves headroom over the default poll timeout.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    330 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultTripoConfig returns the default provider client configuration.
// The API key has no default and must come from config or ARGEN_TRIPO_API_KEY.
func DefaultTripoConfig() TripoConfig {
	def := tripo.DefaultConfig()
	return TripoConfig{
		BaseURL: def.BaseURL,
		Model:   def.Model,
		Timeout: def.Timeout,
	}
}

// DefaultPollConfig returns the default polling bounds.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval: generation.DefaultPollInterval,
		Timeout:  generation.DefaultPollTimeout,
	}
}

// DefaultLedgerConfig returns the default credit ledger configuration.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		Backend:        "file",
		Path:           "data/credits.json",
		InitialBalance: ledger.DefaultInitialBalance,
		RedisKey:       ledger.DefaultRedisKey,
	}
}

// DefaultStoreConfig returns the default model record store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:      "file",
		Path:         "data/models.json",
		DatabasePath: "data/models.db",
	}
}

// DefaultStorageConfig returns the default artifact cache configuration.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Dir: "data/artifacts",
	}
}

// DefaultRedisConfig returns the default Redis connection configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "localhost:6379",
		Password: "",
		DB:       0,
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "argen",
	}
}

// DefaultRateLimitConfig returns the default rate limiting configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 25,
		Burst:             50,
	}
}
