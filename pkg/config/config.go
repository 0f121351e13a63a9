// Package config loads and validates engine configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cellwatch/cellwatch/pkg/types"
)

// Defaults applied when a field is absent from the config file.
const (
	DefaultListen             = "127.0.0.1:9180"
	DefaultDebounceMs         = 100
	DefaultMaxEventsPerSecond = 50
	DefaultRateLimitWindowMs  = 1000
	DefaultMaxHistorySize     = 1000
	DefaultLogLevel           = "info"
)

// Config holds the engine and server configuration.
type Config struct {
	// Listen is the HTTP API bind address.
	Listen string `yaml:"listen"`

	// LogLevel is one of none, error, warn, info, debug.
	LogLevel string `yaml:"log_level"`

	// LogJSON selects JSON log output instead of console output.
	LogJSON bool `yaml:"log_json"`

	// EnabledEvents is the allow-list of event types wired to the source
	// adapter. Empty means the canonical default set.
	EnabledEvents []types.EventType `yaml:"enabled_events"`

	// DebounceMs is the per-subscription coalescing window.
	DebounceMs int `yaml:"debounce_ms"`

	// MaxEventsPerSecond bounds admissions per rate-limit window.
	MaxEventsPerSecond int `yaml:"max_events_per_second"`

	// RateLimitWindowMs is the rate-limit window length.
	RateLimitWindowMs int `yaml:"rate_limit_window_ms"`

	// MaxHistorySize bounds the in-memory event history.
	MaxHistorySize int `yaml:"max_history_size"`

	// PersistEvents controls whether admitted events are recorded in
	// history (and the archive, when configured) at all.
	PersistEvents bool `yaml:"persist_events"`

	// ArchivePath, when set, enables the durable BoltDB event archive.
	ArchivePath string `yaml:"archive_path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:             DefaultListen,
		LogLevel:           DefaultLogLevel,
		EnabledEvents:      types.DefaultEnabledEvents(),
		DebounceMs:         DefaultDebounceMs,
		MaxEventsPerSecond: DefaultMaxEventsPerSecond,
		RateLimitWindowMs:  DefaultRateLimitWindowMs,
		MaxHistorySize:     DefaultMaxHistorySize,
		PersistEvents:      true,
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.EnabledEvents) == 0 {
		cfg.EnabledEvents = types.DefaultEnabledEvents()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms must be >= 0, got %d", c.DebounceMs)
	}
	if c.MaxEventsPerSecond <= 0 {
		return fmt.Errorf("max_events_per_second must be > 0, got %d", c.MaxEventsPerSecond)
	}
	if c.RateLimitWindowMs <= 0 {
		return fmt.Errorf("rate_limit_window_ms must be > 0, got %d", c.RateLimitWindowMs)
	}
	if c.MaxHistorySize <= 0 {
		return fmt.Errorf("max_history_size must be > 0, got %d", c.MaxHistorySize)
	}
	switch c.LogLevel {
	case "none", "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Debounce returns the coalescing window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// RateWindow returns the rate-limit window as a duration.
func (c Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMs) * time.Millisecond
}
