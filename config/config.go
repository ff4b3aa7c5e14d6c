// Package config loads client configuration from a TOML file with
// environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/infodancer/basicfit"
	"github.com/infodancer/basicfit/probe"
)

// Config is the top-level configuration structure.
type Config struct {
	API   APIConfig   `toml:"api"   envPrefix:"BASICFIT_API_"`
	Store StoreConfig `toml:"store" envPrefix:"BASICFIT_STORE_"`
	Log   LogConfig   `toml:"log"   envPrefix:"BASICFIT_LOG_"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	// BaseURL is the backend root probed by the connectivity check.
	BaseURL string `toml:"base_url" env:"BASE_URL"`

	// Timeout bounds each HTTP request. Zero means no client-side timeout.
	Timeout Duration `toml:"timeout" env:"TIMEOUT"`
}

// StoreConfig holds session storage settings.
type StoreConfig struct {
	// Type is the store backend (e.g., "file", "sqlite", "redis", "memory").
	Type string `toml:"type" env:"TYPE"`

	// Path is the backend location. A leading "~/" is expanded.
	Path string `toml:"path" env:"PATH"`

	// Namespace isolates the session keys.
	Namespace string `toml:"namespace" env:"NAMESPACE"`

	// Options contains backend-specific settings.
	Options map[string]string `toml:"options"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" env:"LEVEL"`
}

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: probe.DefaultBaseURL,
			Timeout: Duration(10 * time.Second),
		},
		Store: StoreConfig{
			Type:      "file",
			Path:      defaultStorePath(),
			Namespace: basicfit.DefaultNamespace,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultStorePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "basicfit")
	}
	return ".basicfit"
}

// mergeConfig returns a new Config with base values overridden by non-zero
// values from override. Fields absent in override retain the base value.
func mergeConfig(base, override Config) Config {
	result := base
	if override.API.BaseURL != "" {
		result.API.BaseURL = override.API.BaseURL
	}
	if override.API.Timeout != 0 {
		result.API.Timeout = override.API.Timeout
	}
	if override.Store.Type != "" {
		result.Store.Type = override.Store.Type
	}
	if override.Store.Path != "" {
		result.Store.Path = override.Store.Path
	}
	if override.Store.Namespace != "" {
		result.Store.Namespace = override.Store.Namespace
	}
	if len(override.Store.Options) > 0 {
		result.Store.Options = override.Store.Options
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return result
}

// LoadFile reads and parses a configuration file without applying defaults.
func LoadFile(path string) (*Config, error) {
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

// Load builds the effective configuration: defaults, then the file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		override, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = mergeConfig(cfg, *override)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.Store.Path = expandHome(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg with any BASICFIT_* variables that are set.
// Unset variables leave the existing values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.BaseURL(); err != nil {
		return err
	}
	if c.Store.Type == "" {
		return fmt.Errorf("store type is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// BaseURL parses the configured backend URL. Only http and https are accepted.
func (c *Config) BaseURL() (*url.URL, error) {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", c.API.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: host is required", c.API.BaseURL)
	}
	return u, nil
}

// StoreConfig converts the store section for basicfit.OpenStore.
func (c *Config) StoreConfig() basicfit.StoreConfig {
	return basicfit.StoreConfig{
		Type:      c.Store.Type,
		Path:      c.Store.Path,
		Namespace: c.Store.Namespace,
		Options:   c.Store.Options,
	}
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
