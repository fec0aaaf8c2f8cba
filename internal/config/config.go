// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package config loads the runtime configuration from three layers with
// clear precedence: environment variables over a YAML file over compiled
// defaults. All nested sections are declared next to the code they
// configure and aggregated here via koanf struct tags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/learnpulse/learnpulse/internal/engine/hybrid"
	"github.com/learnpulse/learnpulse/internal/logging"
	"github.com/learnpulse/learnpulse/internal/supervisor"
	"github.com/learnpulse/learnpulse/internal/supervisor/services"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "LEARNPULSE_CONFIG"

// DefaultConfigPaths are searched in order when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{
	"learnpulse.yaml",
	"config/learnpulse.yaml",
	"/etc/learnpulse/config.yaml",
}

// Config is the full runtime configuration tree.
type Config struct {
	Logging    logging.Config         `koanf:"logging"`
	Storage    StorageConfig          `koanf:"storage"`
	Engine     hybrid.Config          `koanf:"engine"`
	Retrain    services.RetrainConfig `koanf:"retrain"`
	Supervisor supervisor.TreeConfig  `koanf:"supervisor"`
	Metrics    MetricsConfig          `koanf:"metrics"`
}

// StorageConfig controls snapshot persistence.
type StorageConfig struct {
	// Dir is the Badger database directory for model snapshots.
	Dir string `koanf:"dir"`

	// KeepSnapshots bounds how many historical snapshots survive pruning.
	KeepSnapshots int `koanf:"keep_snapshots"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func defaultConfig() Config {
	return Config{
		Logging: logging.DefaultConfig(),
		Storage: StorageConfig{
			Dir:           "data/snapshots",
			KeepSnapshots: 3,
		},
		Engine:     hybrid.DefaultConfig(),
		Retrain:    services.DefaultRetrainConfig(),
		Supervisor: supervisor.DefaultTreeConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// LEARNPULSE_* environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("LEARNPULSE_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps LEARNPULSE_* variable names (lowercased, prefix
// stripped) to koanf config paths. Variables not listed here are ignored
// so unrelated process environment cannot leak into the config tree.
var envMappings = map[string]string{
	"log_level":     "logging.level",
	"log_format":    "logging.format",
	"log_caller":    "logging.caller",
	"log_timestamp": "logging.timestamp",

	"storage_dir":    "storage.dir",
	"keep_snapshots": "storage.keep_snapshots",

	"metrics_enabled": "metrics.enabled",
	"metrics_addr":    "metrics.addr",

	"retrain_interval": "retrain.interval",
	"train_on_startup": "retrain.train_on_startup",
	"forced_per_hour":  "retrain.forced_per_hour",

	"max_model_age":             "engine.retrain.max_model_age",
	"new_interaction_threshold": "engine.retrain.new_interaction_threshold",
	"top_k":                     "engine.fusion.top_k",
	"engagement_threshold":      "engine.fusion.engagement_threshold",
	"neighbors":                 "engine.collab.neighbors",
	"vocabulary_size":           "engine.content.vocabulary_size",
	"min_train_users":           "engine.behavior.min_train_users",
	"effectiveness_window_days": "engine.nudge.effectiveness_window_days",

	"failure_threshold": "supervisor.failure_threshold",
	"shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps LEARNPULSE_LOG_LEVEL style names to koanf paths.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "LEARNPULSE_"))
	return envMappings[key]
}

// Validate checks the aggregate tree, delegating engine parameter checks
// to the engine package.
func (c *Config) Validate() error {
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir must not be empty")
	}
	if c.Storage.KeepSnapshots < 1 {
		return fmt.Errorf("storage.keep_snapshots must be at least 1, got %d", c.Storage.KeepSnapshots)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics are enabled")
	}
	if c.Retrain.Interval <= 0 {
		return fmt.Errorf("retrain.interval must be positive, got %s", c.Retrain.Interval)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
