// Package main provides the phaser CLI application.
package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phaser-svc/phaser/pkg/cache"
	"github.com/phaser-svc/phaser/pkg/config"
	"github.com/phaser-svc/phaser/pkg/errors"
	"github.com/phaser-svc/phaser/pkg/gitctx"
	"github.com/phaser-svc/phaser/pkg/observability"
	"github.com/phaser-svc/phaser/pkg/output"
	"github.com/phaser-svc/phaser/pkg/pipeline"
	"github.com/phaser-svc/phaser/pkg/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline for the current worktree",
	Long: `Run the pipeline for the current worktree.

The pipeline file is looked up in the current directory and its parents
unless --pipeline or the configured path points somewhere else. The push
being simulated is taken from CI provider variables when present and
from git otherwise; --branch and --commit override both. When the push
does not match the pipeline's triggers nothing runs and the command
exits zero (--no-trigger-check skips the gate).

The command exits 0 on success, 2 when a step failed and 101 when a
step timed out.`,
	RunE: runPipeline,
}

// runFlags holds the flags for the run command
type runFlags struct {
	pipeline       string
	branch         string
	commit         string
	format         string
	timeout        string
	workers        int
	dryRun         bool
	noTriggerCheck bool
	noCache        bool
	verbose        bool
}

var runOpts runFlags

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runOpts.pipeline, "pipeline", "p", "", "Path to the pipeline file")
	runCmd.Flags().StringVar(&runOpts.branch, "branch", "", "Branch the push is for (overrides git and CI variables)")
	runCmd.Flags().StringVar(&runOpts.commit, "commit", "", "Commit SHA the push is for (overrides git and CI variables)")
	runCmd.Flags().StringVarP(&runOpts.format, "format", "f", "text", "Result format, text or json")
	runCmd.Flags().StringVar(&runOpts.timeout, "timeout", "", "Default step timeout, e.g. 90s or 10m")
	runCmd.Flags().IntVar(&runOpts.workers, "workers", 0, "Number of jobs to run concurrently")
	runCmd.Flags().BoolVar(&runOpts.dryRun, "dry-run", false, "Resolve the run plan without executing any step")
	runCmd.Flags().BoolVar(&runOpts.noTriggerCheck, "no-trigger-check", false, "Run even when the push does not match the triggers")
	runCmd.Flags().BoolVar(&runOpts.noCache, "no-cache", false, "Disable the step result cache")
	runCmd.Flags().BoolVarP(&runOpts.verbose, "verbose", "v", false, "Include output of successful steps in the report")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := output.ParseFormat(runOpts.format)
	if err != nil {
		return errors.ConfigError("parse --format", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	p, path, err := resolvePipeline(cfg, runOpts.pipeline)
	if err != nil {
		return err
	}
	workDir := filepath.Dir(path)
	logger.Debug("pipeline loaded",
		observability.String("pipeline", p.Name),
		observability.String("path", path))

	info := describeWorktree(ctx, workDir, logger)

	if !runOpts.noTriggerCheck {
		ev := resolvePushEvent(info)
		if !p.On.Matches(ev) {
			fmt.Fprintf(cmd.OutOrStdout(), "push to %s does not trigger pipeline %s, nothing to do\n",
				branchLabel(ev.Branch), p.Name)
			return nil
		}
	}

	metrics := observability.NewMetricsCollector(observability.MetricConfig{Enabled: true})
	r, err := buildRunner(cfg, logger, metrics, workDir, runOpts.dryRun)
	if err != nil {
		return err
	}

	res, err := r.Run(ctx, p, info)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(format).WithVerbose(runOpts.verbose)
	if err := formatter.Write(cmd.OutOrStdout(), res); err != nil {
		return err
	}

	switch res.ExitCode() {
	case errors.ExitTimeout:
		return errors.TimeoutError(fmt.Sprintf("pipeline %s timed out", p.Name), nil)
	case errors.ExitStepFailure:
		return errors.StepError(fmt.Sprintf("pipeline %s failed", p.Name), nil)
	}
	return nil
}

// applyRunFlags folds command line overrides into the loaded config.
func applyRunFlags(cfg *config.Config) error {
	if runOpts.workers > 0 {
		cfg.Workers = runOpts.workers
	}
	if runOpts.timeout != "" {
		cfg.DefaultTimeout = runOpts.timeout
	}
	if runOpts.noCache {
		cfg.Cache.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return errors.ConfigError("apply run flags", err)
	}
	return nil
}

// resolvePipeline loads the pipeline file, honoring an explicit flag
// path over the configured path over the default lookup.
func resolvePipeline(cfg *config.Config, flagPath string) (*pipeline.Pipeline, string, error) {
	path := flagPath
	if path == "" {
		path = cfg.Pipeline
	}
	if path != "" {
		p, err := pipeline.Load(path)
		return p, path, err
	}
	return pipeline.LoadDefault(".")
}

// describeWorktree resolves the git context for dir. A worktree that
// cannot be described (not a repository, no git binary) degrades to an
// empty context instead of failing, since --branch and --commit can
// still fill it in.
func describeWorktree(ctx context.Context, dir string, logger observability.Logger) *gitctx.Info {
	info, err := gitctx.Describe(ctx, dir)
	if err != nil {
		logger.Warn("could not describe worktree", observability.Err(err))
		info = &gitctx.Info{Provider: gitctx.Detect()}
	}
	if runOpts.branch != "" {
		info.Branch = runOpts.branch
	}
	if runOpts.commit != "" {
		info.Commit = runOpts.commit
	}
	return info
}

// resolvePushEvent derives the push event a local run stands in for.
// CI provider variables describe the triggering push directly; outside
// CI the worktree state is the closest stand-in.
func resolvePushEvent(info *gitctx.Info) pipeline.PushEvent {
	ev := pipeline.PushEvent{Branch: info.Branch, Commit: info.Commit}
	if env, ok := gitctx.PushEventFromEnv(); ok {
		ev = *env
	}
	if runOpts.branch != "" {
		ev.Branch = runOpts.branch
		ev.Ref = ""
	}
	if runOpts.commit != "" {
		ev.Commit = runOpts.commit
	}
	if ev.Ref == "" && ev.Branch != "" {
		ev.Ref = "refs/heads/" + ev.Branch
	}
	return ev
}

// buildRunner assembles a Runner from the resolved configuration. An
// unusable cache directory downgrades to an uncached run.
func buildRunner(cfg *config.Config, logger observability.Logger, metrics *observability.MetricsCollector, workDir string, dryRun bool) (*runner.Runner, error) {
	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithMetrics(metrics),
		runner.WithWorkers(cfg.Workers),
		runner.WithWorkDir(workDir),
		runner.WithDryRun(dryRun),
	}
	if d, err := cfg.StepTimeout(); err == nil && d > 0 {
		opts = append(opts, runner.WithDefaultTimeout(d))
	}

	if !cfg.Cache.Disabled {
		dir, err := cfg.CacheDir()
		if err != nil {
			return nil, errors.ConfigError("resolve cache directory", err)
		}
		store, err := cache.NewDiskCache(dir)
		if err != nil {
			logger.Warn("step cache unavailable",
				observability.String("dir", dir),
				observability.Err(err))
		} else {
			opts = append(opts, runner.WithCache(store))
			if ttl, err := cfg.CacheTTL(); err == nil && ttl > 0 {
				opts = append(opts, runner.WithCacheTTL(ttl))
			}
		}
	}
	return runner.New(opts...), nil
}

func branchLabel(branch string) string {
	if branch == "" {
		return "(unknown branch)"
	}
	return branch
}
