// Package config loads storefront client configuration from defaults, an
// optional YAML file, an optional .env file and the process environment, in
// that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/R3E-Network/storefront/pkg/logger"
)

// Token store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the full client configuration.
type Config struct {
	API             APIConfig             `yaml:"api"`
	Storage         StorageConfig         `yaml:"storage"`
	Logging         LoggingConfig         `yaml:"logging"`
	Tracking        TrackingConfig        `yaml:"tracking"`
	Recommendations RecommendationsConfig `yaml:"recommendations"`
	Metrics         MetricsConfig         `yaml:"metrics"`
}

// APIConfig describes the remote storefront API.
type APIConfig struct {
	BaseURL          string        `env:"STOREFRONT_API_URL" yaml:"base_url"`
	Timeout          time.Duration `env:"STOREFRONT_API_TIMEOUT" yaml:"timeout"`
	MaxRetries       int           `env:"STOREFRONT_API_MAX_RETRIES" yaml:"max_retries"`
	BreakerThreshold int           `env:"STOREFRONT_API_BREAKER_THRESHOLD" yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `env:"STOREFRONT_API_BREAKER_COOLDOWN" yaml:"breaker_cooldown"`
	RateLimit        float64       `env:"STOREFRONT_API_RATE_LIMIT" yaml:"rate_limit"`
	RateBurst        int           `env:"STOREFRONT_API_RATE_BURST" yaml:"rate_burst"`
}

// StorageConfig selects where the bearer token is persisted.
type StorageConfig struct {
	Backend   string `env:"STOREFRONT_STORE" yaml:"backend"`
	Path      string `env:"STOREFRONT_STORE_PATH" yaml:"path"`
	RedisURL  string `env:"STOREFRONT_REDIS_URL" yaml:"redis_url"`
	KeyPrefix string `env:"STOREFRONT_STORE_PREFIX" yaml:"key_prefix"`
}

// LoggingConfig mirrors logger.LoggingConfig.
type LoggingConfig struct {
	Level  string `env:"STOREFRONT_LOG_LEVEL" yaml:"level"`
	Format string `env:"STOREFRONT_LOG_FORMAT" yaml:"format"`
	Output string `env:"STOREFRONT_LOG_OUTPUT" yaml:"output"`
}

// TrackingConfig bounds the fire-and-forget beacon pool.
type TrackingConfig struct {
	Enabled     bool          `env:"STOREFRONT_TRACKING_ENABLED" yaml:"enabled"`
	MaxInFlight int           `env:"STOREFRONT_TRACKING_MAX_INFLIGHT" yaml:"max_in_flight"`
	Timeout     time.Duration `env:"STOREFRONT_TRACKING_TIMEOUT" yaml:"timeout"`
}

// RecommendationsConfig configures the recommendation loader.
type RecommendationsConfig struct {
	Limit int `env:"STOREFRONT_RECOMMENDATIONS_LIMIT" yaml:"limit"`
}

// MetricsConfig configures the optional Prometheus listener.
type MetricsConfig struct {
	Addr string `env:"STOREFRONT_METRICS_ADDR" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:          "http://localhost:8001",
			Timeout:          15 * time.Second,
			MaxRetries:       2,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
			RateLimit:        20,
			RateBurst:        10,
		},
		Storage: StorageConfig{
			Backend:   StoreSQLite,
			Path:      "storefront.db",
			KeyPrefix: "storefront:",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracking: TrackingConfig{
			Enabled:     true,
			MaxInFlight: 16,
			Timeout:     5 * time.Second,
		},
		Recommendations: RecommendationsConfig{Limit: 10},
	}
}

// Load builds configuration. path is an optional YAML file; envFile is an
// optional dotenv file. Missing dotenv files are ignored.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(envFile) != "" {
		if err := godotenv.Load(envFile); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	base := strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if base == "" {
		return fmt.Errorf("config: api base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: api base url %q must be a valid URL", c.API.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("config: api base url scheme must be http or https")
	}
	c.API.BaseURL = base

	switch c.Storage.Backend {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("config: sqlite store requires a path")
		}
	case StoreRedis:
		if strings.TrimSpace(c.Storage.RedisURL) == "" {
			return fmt.Errorf("config: redis store requires a url")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Storage.Backend)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("config: max retries must not be negative")
	}
	if c.Tracking.MaxInFlight <= 0 {
		c.Tracking.MaxInFlight = 1
	}
	if c.Recommendations.Limit <= 0 {
		c.Recommendations.Limit = 10
	}
	return nil
}

// LoggerConfig converts to the logger package's configuration.
func (c *Config) LoggerConfig() logger.LoggingConfig {
	return logger.LoggingConfig{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}
