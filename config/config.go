// Package config manages application configuration and the stored API key.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// EnvAPIKey is the environment variable consulted for the YouTube Data API
// key when no explicit flag is given.
const EnvAPIKey = "YOUTUBE_API_KEY"

// dirName is the per-user application directory under $HOME.
const dirName = ".youtube-helper"

// Config holds all application configuration for enrichment runs.
type Config struct {
	// CachePath is the SQLite metadata cache location.
	CachePath string `json:"cache_path"`

	// RequestTimeout bounds a single enrichment run's API traffic.
	RequestTimeout time.Duration `json:"request_timeout"`
	// RequestsPerSecond paces API calls (0 = unpaced).
	RequestsPerSecond float64 `json:"requests_per_second"`
	// MaxConsecutiveErrors aborts a run after this many API errors in a row.
	MaxConsecutiveErrors int `json:"max_consecutive_errors"`

	// MaxRetries is the maximum number of retries for failed API calls.
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries.
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries.
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1).
	BackoffMultiplier float64 `json:"backoff_multiplier"`
}

// Dir returns the per-user application directory, creating it if absent.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// DefaultConfig returns configuration with safe defaults. CachePath is left
// empty when the home directory cannot be resolved; Validate catches that.
func DefaultConfig() *Config {
	cfg := &Config{
		RequestTimeout:       10 * time.Minute,
		RequestsPerSecond:    5,
		MaxConsecutiveErrors: 10,
		MaxRetries:           3,
		InitialBackoff:       1 * time.Second,
		MaxBackoff:           30 * time.Second,
		BackoffMultiplier:    2.0,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.CachePath = filepath.Join(home, dirName, "cache.sqlite3")
	}
	return cfg
}

// Load loads configuration from the config file and environment, applying
// defaults. Priority: env vars > config file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile attempts to load config.json from the application directory.
func (c *Config) loadFromFile() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.ErrNotExist
	}
	path := filepath.Join(home, dirName, "config.json")

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overrides config with YTHELPER_* environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTHELPER_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("YTHELPER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("YTHELPER_REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("YTHELPER_MAX_CONSECUTIVE_ERRORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConsecutiveErrors = n
		}
	}
	if v := os.Getenv("YTHELPER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("YTHELPER_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("YTHELPER_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("cache_path must be set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	if c.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("max_consecutive_errors must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}
