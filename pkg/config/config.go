// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides tool configuration for phaser.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults (hardcoded)
// 2. Global Config: $HOME/.phaser/config.yaml
// 3. Project Config: ./.phaser.config.yaml (searched upwards)
// 4. Environment Variables: PHASER_*
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the complete tool configuration. It configures the tool
// itself, not the pipeline; pipelines live in their own document.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Workers caps how many jobs run concurrently.
	Workers int `yaml:"workers"`

	// Pipeline pins the pipeline file path. Empty means search for
	// the nearest pipeline document.
	Pipeline string `yaml:"pipeline"`

	// DefaultTimeout applies to steps without their own timeout,
	// as a duration string such as "10m".
	DefaultTimeout string `yaml:"default_timeout"`

	Cache CacheConfig `yaml:"cache"`
	Serve ServeConfig `yaml:"serve"`
}

// CacheConfig controls the step-result cache.
type CacheConfig struct {
	Disabled bool   `yaml:"disabled"`
	Dir      string `yaml:"dir"`
	TTL      string `yaml:"ttl"`
}

// ServeConfig controls the webhook server.
type ServeConfig struct {
	Addr string `yaml:"addr"`

	// SecretEnv names the environment variable holding the webhook
	// secret. A raw secret is never read from the file itself.
	SecretEnv string `yaml:"secret_env"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		Workers:        4,
		DefaultTimeout: "10m",
		Cache: CacheConfig{
			TTL: "24h",
		},
		Serve: ServeConfig{
			Addr:      ":8972",
			SecretEnv: "PHASER_WEBHOOK_SECRET",
		},
	}
}

// StepTimeout parses the default step timeout.
func (c *Config) StepTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.DefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("default_timeout: %w", err)
	}
	return d, nil
}

// CacheTTL parses the cache entry lifetime.
func (c *Config) CacheTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache.ttl: %w", err)
	}
	return d, nil
}

// CacheDir resolves the cache directory, defaulting to
// $HOME/.phaser/cache.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(home, ".phaser", "cache"), nil
}

// Secret reads the webhook secret from the configured environment
// variable. Nil means signature verification is off.
func (s *ServeConfig) Secret() []byte {
	if s.SecretEnv == "" {
		return nil
	}
	v := os.Getenv(s.SecretEnv)
	if v == "" {
		return nil
	}
	return []byte(v)
}
