// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package config loads runtime configuration from a YAML file overlaid
// with command-line flags.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the host runtime configuration. Plugin-specific configuration
// belongs to plugins; only the runtime's own knobs live here.
type Config struct {
	// DescriptorFile is the JSON plugin descriptor document. An absent
	// file means zero plugins.
	DescriptorFile string `koanf:"descriptor_file"`
	// PluginsDir anchors relative backend asset paths.
	PluginsDir string `koanf:"plugins_dir"`
	// DatabaseURL is the PostgreSQL connection string. Empty disables
	// persistence and plugin migrations.
	DatabaseURL string `koanf:"database_url"`
	// MetricsAddr is the observability listen address. Empty disables
	// the server.
	MetricsAddr string `koanf:"metrics_addr"`
	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
	// EventBuffer is the per-subscription event channel capacity.
	EventBuffer int `koanf:"event_buffer"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DescriptorFile: "plugins.json",
		PluginsDir:     "plugins",
		MetricsAddr:    "127.0.0.1:9100",
		LogFormat:      "json",
		EventBuffer:    128,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or absent), then flag overrides. flags may
// be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, oops.Code("CONFIG_INVALID").
					With("path", path).
					Wrapf(err, "load config file")
			}
		} else if !os.IsNotExist(err) {
			return Config{}, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration constraints.
func (c *Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.EventBuffer <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("event_buffer", c.EventBuffer).
			Errorf("event_buffer must be positive, got %d", c.EventBuffer)
	}
	return nil
}
