package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Snapshot store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	// Remote service
	APIURL               string        `env:"TXN_API_URL"                envDefault:"http://localhost:8080/api"`
	HTTPTimeout          time.Duration `env:"TXN_HTTP_TIMEOUT"           envDefault:"10s"`
	ReadRetries          int           `env:"TXN_READ_RETRIES"           envDefault:"1"`
	RetryInitialInterval time.Duration `env:"TXN_RETRY_INITIAL_INTERVAL" envDefault:"200ms"`

	// Cache
	StaleTime     time.Duration `env:"TXN_STALE_TIME"     envDefault:"5m"`
	CacheTime     time.Duration `env:"TXN_CACHE_TIME"     envDefault:"10m"`
	PruneSchedule string        `env:"TXN_PRUNE_SCHEDULE" envDefault:"@every 1m"`

	// Local state
	Store       string `env:"TXN_STORE"         envDefault:"sqlite"`
	StatePath   string `env:"TXN_STATE_PATH"    envDefault:"txnctl.db"`
	RedisURL    string `env:"REDIS_URL"         envDefault:"redis://localhost:6379"`
	ClientIDKey string `env:"TXN_CLIENT_ID_KEY" envDefault:"clientId"`

	// Presentation
	Timezone string `env:"TXN_TIMEZONE" envDefault:"Local"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Metrics (empty disables the endpoint)
	MetricsAddr string `env:"METRICS_ADDR" envDefault:""`
}

// Load reads an optional .env file from the working directory and then
// parses configuration from the environment.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are skipped and
// variables already set in the environment win.
func LoadFiles(paths ...string) (*Config, error) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env cannot check by type alone.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid TXN_STORE %q: want sqlite, memory or redis", c.Store)
	}
	if c.ReadRetries < 0 {
		return fmt.Errorf("invalid TXN_READ_RETRIES %d", c.ReadRetries)
	}
	if c.StaleTime <= 0 || c.CacheTime <= 0 {
		return errors.New("TXN_STALE_TIME and TXN_CACHE_TIME must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TXN_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
