// Package config loads the service configuration from YAML and the environment
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvConfigPath = "BARTER_CONFIG"
	EnvPort       = "PORT"
	EnvJWTSecret  = "BARTER_JWT_SECRET"
)

// Config is the top-level service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
	Equity  EquityConfig  `yaml:"equity"`
	Cache   CacheConfig   `yaml:"cache"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the proposal store. Driver is "memory" or "sqlite".
// An empty IdempotencyPath disables Idempotency-Key handling.
type StorageConfig struct {
	Driver          string        `yaml:"driver"`
	SQLitePath      string        `yaml:"sqlite_path"`
	IdempotencyPath string        `yaml:"idempotency_path"`
	IdempotencyTTL  time.Duration `yaml:"idempotency_ttl"`
}

// CatalogConfig selects where products come from. Source is "local" (the
// proposal store's own product table) or "remote".
type CatalogConfig struct {
	Source  string        `yaml:"source"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// EquityConfig points at the evaluator and sets the local policy
type EquityConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	MaxDifferencePercentage float64       `yaml:"max_difference_percentage"`
	RequireFairVerdict      bool          `yaml:"require_fair_verdict"`
}

// CacheConfig enables the Redis catalog cache when RedisAddr is set
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	Prefix    string        `yaml:"prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration that runs everything in-process
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:         "memory",
			SQLitePath:     "barter.db",
			IdempotencyTTL: 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			Source:  "local",
			Timeout: 5 * time.Second,
		},
		Equity: EquityConfig{
			Timeout:                 5 * time.Second,
			MaxDifferencePercentage: 40,
		},
		Cache: CacheConfig{
			Prefix: "barter:catalog:",
			TTL:    time.Minute,
		},
		Auth: AuthConfig{
			Issuer:   "barter-exchange",
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path loads defaults only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv(EnvPort); port != "" {
		c.Server.Addr = ":" + port
	}
	if secret := os.Getenv(EnvJWTSecret); secret != "" {
		c.Auth.JWTSecret = secret
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q (supported: memory, sqlite)", c.Storage.Driver))
	}

	switch c.Catalog.Source {
	case "local":
	case "remote":
		if err := validateURL(c.Catalog.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("catalog.base_url: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source: unknown source %q (supported: local, remote)", c.Catalog.Source))
	}

	if err := validateURL(c.Equity.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("equity.base_url: %w", err))
	}
	if p := c.Equity.MaxDifferencePercentage; p < 0 || p > 100 {
		errs = append(errs, fmt.Errorf("equity.max_difference_percentage must be within 0-100, got %v", p))
	}

	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret is required (or set %s)", EnvJWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	return nil
}
