// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// MaxWorkers is the maximum allowed value for Workers
	MaxWorkers = 64
)

var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	envVarNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("log_level: %q is not one of debug, info, warn, error", c.LogLevel)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers: must be at least 1")
	}
	if c.Workers > MaxWorkers {
		return fmt.Errorf("workers: %d exceeds the maximum of %d", c.Workers, MaxWorkers)
	}

	if d, err := c.StepTimeout(); err != nil {
		return err
	} else if d <= 0 {
		return fmt.Errorf("default_timeout: must be positive")
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Serve.Validate(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Validate checks the cache settings.
func (cc *CacheConfig) Validate() error {
	if cc.Disabled {
		return nil
	}
	d, err := time.ParseDuration(cc.TTL)
	if err != nil {
		return fmt.Errorf("ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("ttl: must be positive")
	}
	return nil
}

// Validate checks the webhook server settings.
func (s *ServeConfig) Validate() error {
	if s.Addr == "" {
		return fmt.Errorf("addr: must not be empty")
	}
	if s.SecretEnv != "" && !envVarNamePattern.MatchString(s.SecretEnv) {
		return fmt.Errorf("secret_env: %q is not a valid environment variable name", s.SecretEnv)
	}
	return nil
}
