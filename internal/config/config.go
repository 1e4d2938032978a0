// Package config loads the workerstats exporter configuration.
//
// Precedence: defaults, then the YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WORKERSTATS_LISTEN.
const EnvPrefix = "WORKERSTATS"

// Config is the exporter configuration.
type Config struct {
	// Listen is the address the metrics endpoint binds to.
	Listen string `yaml:"listen"`
	// Path is the HTTP path serving the metrics.
	Path string `yaml:"path"`
	// RefreshInterval is the period between two gauge refreshes.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// Prefix, when set, is prepended to every exported family name.
	Prefix string `yaml:"prefix"`
	// Labels are appended to every exported sample.
	Labels map[string]string `yaml:"labels"`
	// Apps is the static application inventory reported by the exporter.
	Apps []AppConfig `yaml:"apps"`
	Log  LogConfig   `yaml:"log"`
}

// AppConfig describes one application.
type AppConfig struct {
	Name           string `yaml:"name"`
	ReadyInstances int    `yaml:"ready_instances"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Listen:          "127.0.0.1:9898",
		Path:            "/metrics",
		RefreshInterval: 2 * time.Second,
		Log:             LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file leaves the defaults in place; an
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + "_" + name)
		return v, ok && v != ""
	}
	if v, ok := get("LISTEN"); ok {
		cfg.Listen = v
	}
	if v, ok := get("PATH"); ok {
		cfg.Path = v
	}
	if v, ok := get("PREFIX"); ok {
		cfg.Prefix = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("REFRESH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s_REFRESH_INTERVAL: %w", EnvPrefix, err)
		}
		cfg.RefreshInterval = d
	}
	return nil
}

// Validate checks the fields the exporter cannot run without.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path %q must start with '/'", c.Path)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	seen := make(map[string]struct{}, len(c.Apps))
	for _, app := range c.Apps {
		if app.Name == "" {
			return errors.New("app name is required")
		}
		if _, dup := seen[app.Name]; dup {
			return fmt.Errorf("app %q listed twice", app.Name)
		}
		if app.ReadyInstances < 0 {
			return fmt.Errorf("app %q: ready_instances must not be negative", app.Name)
		}
		seen[app.Name] = struct{}{}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
