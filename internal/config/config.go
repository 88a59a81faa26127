// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers a YAML file and SETRES_ env vars over the defaults.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"

	"github.com/okian/setres/internal/domain/dex"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DexPath points at a YAML dictionary; empty uses the bundled one.
	DexPath string `koanf:"dex_path"`

	// CacheDSN is the sqlite DSN of the persistent build cache; empty keeps
	// the cache in memory.
	CacheDSN string `koanf:"cache_dsn"`

	// DefaultGen and DefaultFormat apply when a request names neither.
	DefaultGen    int    `koanf:"default_gen"`
	DefaultFormat string `koanf:"default_format"`

	// CoalesceWindowMS is how long the worker waits for more triggers before
	// running a pass.
	CoalesceWindowMS int `koanf:"coalesce_window_ms"`

	// TriggerQueueSize bounds pending triggers; extra triggers coalesce.
	TriggerQueueSize int `koanf:"trigger_queue_size"`

	// DedupeSize bounds the remembered participant fingerprints.
	DedupeSize int `koanf:"dedupe_size"`

	// FormatFamilies maps format ids that play identically onto one canonical id.
	FormatFamilies map[string]string `koanf:"format_families"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		DefaultGen:       dex.DefaultGen,
		DefaultFormat:    "gen9ou",
		CoalesceWindowMS: 50,
		TriggerQueueSize: 1,
		DedupeSize:       4096,
		FormatFamilies:   map[string]string{},
	}
}

// CoalesceWindow returns the debounce window as a duration.
func (c *Config) CoalesceWindow() time.Duration {
	return time.Duration(c.CoalesceWindowMS) * time.Millisecond
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DefaultGen < dex.MinGen || c.DefaultGen > dex.MaxGen:
		return fmt.Errorf("%w: default_gen %d out of range", ErrInvalidConfig, c.DefaultGen)
	case c.CoalesceWindowMS < 0:
		return fmt.Errorf("%w: coalesce_window_ms must not be negative", ErrInvalidConfig)
	case c.TriggerQueueSize < 1:
		return fmt.Errorf("%w: trigger_queue_size must be at least 1", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
