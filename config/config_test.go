package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/infodancer/basicfit"
	"github.com/infodancer/basicfit/probe"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != probe.DefaultBaseURL {
		t.Errorf("expected default base url, got %q", cfg.API.BaseURL)
	}
	if time.Duration(cfg.API.Timeout) != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", time.Duration(cfg.API.Timeout))
	}
	if cfg.Store.Type != "file" || cfg.Store.Namespace != basicfit.DefaultNamespace {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Store.Path == "" {
		t.Error("expected a default store path")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `[api]
timeout = "2s"

[store]
type = "redis"

[store.options]
addr = "127.0.0.1:6380"
prefix = "bf"

[log]
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if time.Duration(cfg.API.Timeout) != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", time.Duration(cfg.API.Timeout))
	}
	if cfg.API.BaseURL != probe.DefaultBaseURL {
		t.Errorf("expected base url default retained, got %q", cfg.API.BaseURL)
	}
	if cfg.Store.Type != "redis" || cfg.Store.Options["addr"] != "127.0.0.1:6380" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Store.Namespace != basicfit.DefaultNamespace {
		t.Errorf("expected default namespace retained, got %q", cfg.Store.Namespace)
	}

	sc := cfg.StoreConfig()
	if sc.Type != "redis" || sc.Options["prefix"] != "bf" {
		t.Errorf("unexpected StoreConfig: %+v", sc)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[store]\ntype = \"file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BASICFIT_API_BASE_URL", "http://localhost:8000/")
	t.Setenv("BASICFIT_API_TIMEOUT", "3s")
	t.Setenv("BASICFIT_STORE_TYPE", "sqlite")
	t.Setenv("BASICFIT_STORE_PATH", filepath.Join(dir, "prefs.db"))
	t.Setenv("BASICFIT_LOG_LEVEL", "warn")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000/" {
		t.Errorf("expected env base url, got %q", cfg.API.BaseURL)
	}
	if time.Duration(cfg.API.Timeout) != 3*time.Second {
		t.Errorf("expected env timeout, got %v", time.Duration(cfg.API.Timeout))
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != filepath.Join(dir, "prefs.db") {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected env log level, got %q", cfg.Log.Level)
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BASICFIT_STORE_PATH", "~/prefs")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != filepath.Join(home, "prefs") {
		t.Errorf("expected expanded path, got %q", cfg.Store.Path)
	}
}

func TestMergeConfig(t *testing.T) {
	base := Default()
	override := Config{Store: StoreConfig{Type: "memory"}}

	result := mergeConfig(base, override)
	if result.Store.Type != "memory" {
		t.Errorf("expected merged type memory, got %q", result.Store.Type)
	}
	if result.API.BaseURL != base.API.BaseURL {
		t.Errorf("expected base url retained, got %q", result.API.BaseURL)
	}

	// Zero override should not overwrite base
	result = mergeConfig(base, Config{})
	if result.Store.Type != "file" || result.Log.Level != "info" {
		t.Errorf("expected base retained, got %+v", result)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://example.com/" }},
		{"no host", func(c *Config) { c.API.BaseURL = "https:///path" }},
		{"unparseable url", func(c *Config) { c.API.BaseURL = "http://[::1" }},
		{"no store type", func(c *Config) { c.Store.Type = "" }},
		{"negative timeout", func(c *Config) { c.API.Timeout = Duration(-time.Second) }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
