package config

import (
	"fmt"
	"time"
)

// WorkerConfig tunes the session worker.
type WorkerConfig struct {
	// MaxConcurrentSessions bounds sessions processed in parallel.
	MaxConcurrentSessions int `toml:"max_concurrent_sessions"`
	// PollInterval is how often the worker checks for uploaded sessions.
	PollInterval string `toml:"poll_interval"`
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *WorkerConfig) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkerConfig) Merge(overlay *WorkerConfig) {
	if overlay.MaxConcurrentSessions != 0 {
		c.MaxConcurrentSessions = overlay.MaxConcurrentSessions
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
}

// Finalize applies defaults and validation.
func (c *WorkerConfig) Finalize() error {
	if c.MaxConcurrentSessions == 0 {
		c.MaxConcurrentSessions = 4
	}
	if c.PollInterval == "" {
		c.PollInterval = "5s"
	}
	if c.MaxConcurrentSessions < 0 {
		return fmt.Errorf("max_concurrent_sessions must be positive")
	}
	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	return nil
}

// RulesConfig points at an optional YAML rule pack.
type RulesConfig struct {
	// PackPath is a rule-pack file imported at startup when set.
	PackPath string `toml:"pack_path"`
	// WatchPack re-imports the pack on file changes.
	WatchPack bool `toml:"watch_pack"`
}

// Merge overwrites non-zero fields from overlay.
func (c *RulesConfig) Merge(overlay *RulesConfig) {
	if overlay.PackPath != "" {
		c.PackPath = overlay.PackPath
	}
	if overlay.WatchPack {
		c.WatchPack = true
	}
}

// KeywordsConfig points at an optional keyword seed file.
type KeywordsConfig struct {
	// SeedPath is a YAML keyword file applied at startup when set.
	SeedPath string `toml:"seed_path"`
}

// Merge overwrites non-zero fields from overlay.
func (c *KeywordsConfig) Merge(overlay *KeywordsConfig) {
	if overlay.SeedPath != "" {
		c.SeedPath = overlay.SeedPath
	}
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Merge overwrites non-zero fields from overlay.
func (c *MetricsConfig) Merge(overlay *MetricsConfig) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Addr != "" {
		c.Addr = overlay.Addr
	}
}
