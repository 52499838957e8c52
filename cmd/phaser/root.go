// Package main provides the phaser CLI application.
package main

import (
	"github.com/spf13/cobra"

	"github.com/phaser-svc/phaser/pkg/config"
	"github.com/phaser-svc/phaser/pkg/errors"
	"github.com/phaser-svc/phaser/pkg/observability"
	"github.com/phaser-svc/phaser/pkg/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phaser",
	Short: "Push-triggered CI pipeline runner",
	Long: `Phaser - a push-triggered CI pipeline runner for Go projects.

Phaser reads a pipeline file from the repository, decides whether the
current push should trigger it, checks the Go toolchain against the
pipeline's requirement and runs the jobs in dependency order.`,
	Version:       version.FullString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// rootFlags holds the persistent flags shared by all commands.
type rootFlags struct {
	config   string
	logLevel string
}

var rootOpts rootFlags

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.config, "config", "c", "", "Path to the tool configuration file")
	rootCmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig resolves the tool configuration, honoring --config over the
// PHASER_CONFIG variable and the layered defaults.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rootOpts.config != "" {
		cfg, err = config.Load(rootOpts.config)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if rootOpts.logLevel != "" {
		cfg.LogLevel = rootOpts.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, errors.ConfigError("apply --log-level", err)
		}
	}
	return cfg, nil
}

// newLogger builds the process logger at the configured level.
func newLogger(cfg *config.Config) (observability.Logger, error) {
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, errors.ConfigError("build logger", err)
	}
	return logger, nil
}
