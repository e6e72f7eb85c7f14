// Package config loads clinicli's configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds CLI-level settings, layered as file < environment < flags.
type Config struct {
	Server         string `yaml:"server"`          // clinic API base URL
	LogLevel       string `yaml:"log_level"`       // debug, info, warn, error
	LogFormat      string `yaml:"log_format"`      // text, json
	TimeoutSeconds int    `yaml:"timeout_seconds"` // default request timeout
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Server:         "http://localhost:4000",
		LogLevel:       "info",
		LogFormat:      "text",
		TimeoutSeconds: 30,
	}
}

// Timeout returns the configured request timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath returns ~/.clinicli/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".clinicli", "config.yaml"), nil
}

// Load reads the config file at path, filling gaps with defaults. A
// missing file is not an error: defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Server == "" {
		cfg.Server = Default().Server
	}
	return cfg, nil
}
