// Package config loads the root service configuration: a base config.toml,
// an optional per-environment overlay selected by EGRESSWATCH_ENV, then
// environment variable overrides, then validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/egresswatch/egresswatch/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvEgresswatchEnv             = "EGRESSWATCH_ENV"
	EnvEgresswatchShutdownTimeout = "EGRESSWATCH_SHUTDOWN_TIMEOUT"
	EnvEgresswatchVersion         = "EGRESSWATCH_VERSION"
	EnvEgresswatchMetricsAddr     = "EGRESSWATCH_METRICS_ADDR"
)

var databaseEnv = &database.Env{
	Host:            "EGRESSWATCH_DB_HOST",
	Port:            "EGRESSWATCH_DB_PORT",
	Name:            "EGRESSWATCH_DB_NAME",
	User:            "EGRESSWATCH_DB_USER",
	Password:        "EGRESSWATCH_DB_PASSWORD",
	SSLMode:         "EGRESSWATCH_DB_SSL_MODE",
	MaxOpenConns:    "EGRESSWATCH_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "EGRESSWATCH_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "EGRESSWATCH_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "EGRESSWATCH_DB_CONN_TIMEOUT",
}

// Config is the root configuration for the egresswatch service.
type Config struct {
	Database database.Config `toml:"database"`
	Engine   EngineConfig    `toml:"engine"`
	Worker   WorkerConfig    `toml:"worker"`
	Rules    RulesConfig     `toml:"rules"`
	Keywords KeywordsConfig  `toml:"keywords"`
	Metrics  MetricsConfig   `toml:"metrics"`

	ShutdownTimeout string `toml:"shutdown_timeout"`
	Version         string `toml:"version"`
}

// Env returns the EGRESSWATCH_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvEgresswatchEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment
// overlay, and finalizes all values. If no config.toml exists, defaults
// and environment variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Database.Merge(&overlay.Database)
	c.Engine.Merge(&overlay.Engine)
	c.Worker.Merge(&overlay.Worker)
	c.Rules.Merge(&overlay.Rules)
	c.Keywords.Merge(&overlay.Keywords)
	c.Metrics.Merge(&overlay.Metrics)
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Engine.Finalize(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Worker.Finalize(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvEgresswatchShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvEgresswatchVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvEgresswatchMetricsAddr); v != "" {
		c.Metrics.Addr = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvEgresswatchEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
