// Package config handles configuration loading and validation
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/phaser-svc/phaser/pkg/errors"
)

// Default config file names to search for
var defaultConfigFiles = []string{
	".phaser.config.yaml",
	".phaser.config.yml",
}

// globalConfigPath is the per-user configuration file under $HOME.
const globalConfigPath = ".phaser/config.yaml"

// Load loads configuration from a specific file path, layered over
// the defaults and under the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := decodeInto(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("config validation failed", err)
	}
	return cfg, nil
}

// LoadDefault builds the effective configuration from all layers:
// defaults, the global file, the nearest project file, then the
// environment. Missing files are not an error.
func LoadDefault() (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		globalPath := filepath.Join(home, globalConfigPath)
		if _, err := os.Stat(globalPath); err == nil {
			if err := decodeInto(cfg, globalPath); err != nil {
				return nil, err
			}
		}
	}

	if projectPath, ok := findInParents("."); ok {
		if err := decodeInto(cfg, projectPath); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("config validation failed", err)
	}
	return cfg, nil
}

// LoadFromEnv loads config from environment variable path
// PHASER_CONFIG can override the config file path
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv("PHASER_CONFIG"); path != "" {
		return Load(path)
	}
	return LoadDefault()
}

// decodeInto decodes one file over cfg. Fields absent from the file
// keep their current values, which is what layers the configs.
func decodeInto(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to read config file: %s", path), err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to parse config file: %s", path), err)
	}
	return nil
}

// findInParents searches for a config file in the current directory
// and its parents.
func findInParents(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}

	for {
		for _, filename := range defaultConfigFiles {
			configPath := filepath.Join(dir, filename)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, true
			}
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			// Reached root
			break
		}
		dir = parentDir
	}
	return "", false
}

// applyEnv applies PHASER_* environment overrides.
func applyEnv(cfg *Config) {
	if val := os.Getenv("PHASER_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("PHASER_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Workers = n
		}
	}
	if val := os.Getenv("PHASER_PIPELINE"); val != "" {
		cfg.Pipeline = val
	}
	if val := os.Getenv("PHASER_TIMEOUT"); val != "" {
		cfg.DefaultTimeout = val
	}
	if val := os.Getenv("PHASER_CACHE_DIR"); val != "" {
		cfg.Cache.Dir = val
	}
	if val := os.Getenv("PHASER_CACHE_TTL"); val != "" {
		cfg.Cache.TTL = val
	}
	if val := os.Getenv("PHASER_NO_CACHE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Cache.Disabled = b
		}
	}
	if val := os.Getenv("PHASER_ADDR"); val != "" {
		cfg.Serve.Addr = val
	}
}
