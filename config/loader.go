// Package config loads the service configuration from defaults, an optional
// YAML file, and ARGEN_* environment variables, in that order of precedence.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("ARGEN").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	// Server is the HTTP front door.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Tripo configures the remote generation provider.
	Tripo TripoConfig `yaml:"tripo" env:"TRIPO"`

	// Poll bounds the status polling loop.
	Poll PollConfig `yaml:"poll" env:"POLL"`

	// Ledger is the local credit ledger.
	Ledger LedgerConfig `yaml:"ledger" env:"LEDGER"`

	// Store is the model record store.
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Storage is where fetched artifacts are cached.
	Storage StorageConfig `yaml:"storage" env:"STORAGE"`

	// Redis backs the ledger when its backend is set to redis.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// RateLimit throttles the HTTP surface.
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// ServerConfig is the HTTP server configuration.
type ServerConfig struct {
	// Listen port.
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Read timeout.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// Write timeout. Generation requests block for the whole poll, so this
	// must exceed the poll timeout.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// Graceful shutdown timeout.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// TripoConfig configures the remote provider client.
type TripoConfig struct {
	// API key. Required to serve generation requests.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Base URL of the provider API.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Model version sent with every submission.
	Model string `yaml:"model" env:"MODEL"`
	// Per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// PollConfig bounds the poll-until-complete loop.
type PollConfig struct {
	// Pause between status checks.
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	// Total wall-clock budget per generation.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LedgerConfig is the local credit ledger configuration.
type LedgerConfig struct {
	// Backend: file or redis.
	Backend string `yaml:"backend" env:"BACKEND"`
	// Path of the JSON snapshot for the file backend.
	Path string `yaml:"path" env:"PATH"`
	// Balance a never-persisted ledger is seeded with.
	InitialBalance int64 `yaml:"initial_balance" env:"INITIAL_BALANCE"`
	// Redis key for the redis backend.
	RedisKey string `yaml:"redis_key" env:"REDIS_KEY"`
}

// StoreConfig is the model record store configuration.
type StoreConfig struct {
	// Backend: file or sqlite.
	Backend string `yaml:"backend" env:"BACKEND"`
	// Path of the JSON collection for the file backend.
	Path string `yaml:"path" env:"PATH"`
	// Path of the database file for the sqlite backend.
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"`
}

// StorageConfig is the artifact cache configuration.
type StorageConfig struct {
	// Directory fetched artifacts are written under.
	Dir string `yaml:"dir" env:"DIR"`
}

// RedisConfig is the Redis connection configuration.
type RedisConfig struct {
	// Address, host:port.
	Addr string `yaml:"addr" env:"ADDR"`
	// Password, empty for none.
	Password string `yaml:"password" env:"PASSWORD"`
	// Database number.
	DB int `yaml:"db" env:"DB"`
}

// LogConfig is the structured logging configuration.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// Output paths, stdout/stderr or files.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// MetricsConfig is the Prometheus endpoint configuration.
type MetricsConfig struct {
	// Whether /metrics is served.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Metric namespace.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// RateLimitConfig throttles the HTTP surface.
type RateLimitConfig struct {
	// Whether rate limiting is applied.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Sustained requests per second.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// Burst size.
	Burst int `yaml:"burst" env:"BURST"`
}

// Loader builds a Config from defaults, a YAML file, and the environment.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the ARGEN env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "ARGEN",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validation hook run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration. Precedence: defaults, then YAML file,
// then environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// time.Duration fields accept "5s" style values.
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads the configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads the configuration without a file.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks structural sanity of the resolved configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Poll.Timeout {
		errs = append(errs, "server write_timeout must exceed poll timeout")
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, "poll interval must be positive")
	}
	if c.Poll.Timeout < c.Poll.Interval {
		errs = append(errs, "poll timeout must be at least one interval")
	}

	switch c.Ledger.Backend {
	case "file", "redis":
	default:
		errs = append(errs, fmt.Sprintf("unknown ledger backend: %s", c.Ledger.Backend))
	}
	if c.Ledger.InitialBalance < 0 {
		errs = append(errs, "ledger initial_balance must not be negative")
	}
	if c.Ledger.Backend == "redis" && c.Redis.Addr == "" {
		errs = append(errs, "redis addr is required for the redis ledger backend")
	}

	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("unknown store backend: %s", c.Store.Backend))
	}

	if c.Storage.Dir == "" {
		errs = append(errs, "storage dir must not be empty")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level: %s", c.Log.Level))
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, "rate limit requests_per_second must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
