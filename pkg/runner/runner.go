// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package runner executes pipelines. It probes the Go toolchain, walks
// the job graph level by level and runs every step in its own
// subprocess with output capture, timeouts and result caching.
package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phaser-svc/phaser/pkg/cache"
	"github.com/phaser-svc/phaser/pkg/errors"
	"github.com/phaser-svc/phaser/pkg/gitctx"
	"github.com/phaser-svc/phaser/pkg/observability"
	"github.com/phaser-svc/phaser/pkg/perf"
	"github.com/phaser-svc/phaser/pkg/pipeline"
	"github.com/phaser-svc/phaser/pkg/security"
)

const (
	defaultWorkers     = 4
	defaultStepTimeout = 10 * time.Minute
	defaultCacheTTL    = 24 * time.Hour
)

// Runner executes a validated pipeline against the local worktree.
type Runner struct {
	logger         observability.Logger
	metrics        *observability.MetricsCollector
	cache          cache.Cache
	redactor       *security.Redactor
	workers        int
	workDir        string
	defaultTimeout time.Duration
	cacheTTL       time.Duration
	dryRun         bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.MetricsCollector) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithCache sets the step-result cache. Without one every step runs.
func WithCache(c cache.Cache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithWorkers sets how many jobs may run concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithWorkDir sets the directory step working directories resolve
// against. Defaults to the process working directory.
func WithWorkDir(dir string) Option {
	return func(r *Runner) { r.workDir = dir }
}

// WithDefaultTimeout sets the timeout applied to steps that do not
// declare their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.defaultTimeout = d
		}
	}
}

// WithCacheTTL sets how long cached step results stay valid.
func WithCacheTTL(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.cacheTTL = d
		}
	}
}

// WithDryRun makes Run report the steps it would execute without
// starting any subprocess.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// New creates a runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger:         observability.NewNop(),
		metrics:        observability.NewMetricsCollector(observability.MetricConfig{}),
		redactor:       security.NewRedactor(),
		workers:        defaultWorkers,
		defaultTimeout: defaultStepTimeout,
		cacheTTL:       defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = defaultWorkers
	}
	return r
}

// Run executes the pipeline. Step failures are reported through the
// result, not the error: Run returns an error only when the pipeline
// could not be executed at all.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline, info *gitctx.Info) (*RunResult, error) {
	if p == nil {
		return nil, errors.ConfigError("no pipeline to run", ErrNilPipeline)
	}
	if err := p.Validate(); err != nil {
		return nil, errors.PipelineError("invalid pipeline", err)
	}

	tc, err := ProbeToolchain(ctx)
	if err != nil {
		return nil, errors.ToolchainError("probe go toolchain", err)
	}
	if err := tc.Check(p.Toolchain.Go); err != nil {
		return nil, errors.ToolchainError("toolchain requirement not met", err)
	}

	levels, err := p.ExecutionLevels()
	if err != nil {
		return nil, errors.PipelineError("resolve job order", err)
	}

	r.registerSecrets(p)

	res := &RunResult{
		ID:        uuid.NewString(),
		Pipeline:  p.Name,
		GoVersion: tc.Version.String(),
		Status:    StatusSuccess,
		Started:   time.Now(),
		DryRun:    r.dryRun,
	}
	if info != nil {
		res.Branch = info.Branch
		res.Commit = info.Commit
	}

	r.logger.Info("starting pipeline run",
		observability.String("run", res.ID),
		observability.String("pipeline", p.Name),
		observability.String("go", res.GoVersion),
		observability.Bool("dry_run", r.dryRun),
	)

	pool, err := perf.NewWorkerPool(r.workers)
	if err != nil {
		return nil, errors.ConfigError("create worker pool", err)
	}
	pool.Start()
	defer pool.Stop()

	failed := false
	for _, level := range levels {
		if failed {
			for _, id := range level {
				res.Jobs = append(res.Jobs, r.skipJob(id, p.Jobs[id]))
			}
			continue
		}

		results := make([]*JobResult, len(level))
		var wg sync.WaitGroup
		for i, id := range level {
			i, id := i, id
			job := p.Jobs[id]
			wg.Add(1)
			err := pool.Enqueue(ctx, func() {
				defer wg.Done()
				results[i] = r.runJob(ctx, p, id, job, tc, info)
			})
			if err != nil {
				wg.Done()
				results[i] = &JobResult{ID: id, Name: job.Name, Status: StatusFailure}
				r.logger.Error("enqueue job", observability.String("job", id), observability.Err(err))
			}
		}
		wg.Wait()

		for _, jr := range results {
			res.Jobs = append(res.Jobs, jr)
			if jr.Status == StatusFailure {
				failed = true
			}
		}
	}

	res.Duration = time.Since(res.Started)
	if failed {
		res.Status = StatusFailure
	}
	r.metrics.RecordRun(!failed, res.Duration)

	r.logger.Info("pipeline run finished",
		observability.String("run", res.ID),
		observability.String("status", string(res.Status)),
		observability.Duration("duration", res.Duration),
	)
	return res, nil
}

// skipJob produces the result for a job whose dependencies failed.
func (r *Runner) skipJob(id string, job *pipeline.Job) *JobResult {
	name := id
	if job != nil && job.Name != "" {
		name = job.Name
	}
	r.logger.Info("skipping job", observability.String("job", id))
	return &JobResult{ID: id, Name: name, Status: StatusSkipped}
}

// runJob executes the steps of one job sequentially.
func (r *Runner) runJob(ctx context.Context, p *pipeline.Pipeline, id string, job *pipeline.Job, tc *Toolchain, info *gitctx.Info) *JobResult {
	jr := &JobResult{ID: id, Name: job.Name, Status: StatusSuccess}
	started := time.Now()

	jobCtx := ctx
	if job.TimeoutMinutes > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, time.Duration(job.TimeoutMinutes)*time.Minute)
		defer cancel()
	}

	r.logger.Info("starting job",
		observability.String("job", id),
		observability.Int("steps", len(job.Steps)),
	)

	failed := false
	for i, step := range job.Steps {
		name := stepLabel(i, step)
		if failed {
			jr.Steps = append(jr.Steps, &StepResult{Name: name, Status: StatusSkipped})
			continue
		}

		sr := r.runStep(jobCtx, p, job, step, name, tc, info)
		jr.Steps = append(jr.Steps, sr)
		r.metrics.RecordStep(id, sr.Status == StatusSuccess, sr.Duration)

		if sr.Status == StatusFailure {
			if step.ContinueOnError {
				r.logger.Warn("step failed, continuing",
					observability.String("job", id),
					observability.String("step", name),
				)
				continue
			}
			failed = true
		}
	}

	if failed {
		jr.Status = StatusFailure
	}
	jr.Duration = time.Since(started)

	r.logger.Info("job finished",
		observability.String("job", id),
		observability.String("status", string(jr.Status)),
		observability.Duration("duration", jr.Duration),
	)
	return jr
}

// runStep executes one step, consulting the result cache first.
func (r *Runner) runStep(ctx context.Context, p *pipeline.Pipeline, job *pipeline.Job, step *pipeline.Step, name string, tc *Toolchain, info *gitctx.Info) *StepResult {
	sr := &StepResult{Name: name, Status: StatusSuccess}
	started := time.Now()

	declared := mergeEnv(p.Env, job.Env, step.Env)

	if r.dryRun {
		r.logger.Info("would run step",
			observability.String("step", name),
			observability.String("run", step.Run),
			observability.String("shell", step.Shell),
		)
		return sr
	}

	var key string
	if r.cache != nil && cacheable(info) {
		key = stepCacheKey(info.Commit, tc.Version.String(), step.Run, step.Shell, step.Dir, declared)
		if data, err := r.cache.Get(ctx, key); err == nil {
			if cached, ok := decodeStepResult(data); ok {
				r.metrics.RecordCacheHit(true)
				cached.Cached = true
				r.logger.Info("step result from cache", observability.String("step", name))
				return cached
			}
		} else if !stderrors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("cache read failed", observability.String("step", name), observability.Err(err))
		}
		r.metrics.RecordCacheHit(false)
	}

	binary, args, err := shellArgv(step.Shell, step.Run)
	if err != nil {
		sr.Status = StatusFailure
		sr.ExitCode = -1
		sr.ErrOutput = err.Error()
		sr.Duration = time.Since(started)
		r.logger.Error("step command invalid", observability.String("step", name), observability.Err(err))
		return sr
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.stepTimeout(step))
	defer cancel()

	env := os.Environ()
	for k, v := range declared {
		env = append(env, k+"="+v)
	}

	proc := NewStepProcess(binary, args).
		WithDir(r.resolveDir(step.Dir)).
		WithEnv(env)

	r.logger.Debug("starting step",
		observability.String("step", name),
		observability.String("run", step.Run),
	)

	if err := proc.Start(stepCtx); err != nil {
		sr.Status = StatusFailure
		sr.ExitCode = -1
		sr.ErrOutput = err.Error()
		sr.Duration = time.Since(started)
		r.logger.Error("step failed to start", observability.String("step", name), observability.Err(err))
		return sr
	}

	code, err := proc.Wait(stepCtx)
	sr.Duration = time.Since(started)
	sr.Output = r.redactor.Redact(proc.Stdout())
	sr.ErrOutput = r.redactor.Redact(proc.Stderr())
	r.warnOnTokens(name, sr.Output+"\n"+sr.ErrOutput)

	switch {
	case stderrors.Is(err, ErrStepTimeout):
		sr.Status = StatusFailure
		sr.TimedOut = true
		sr.ExitCode = -1
		r.logger.Error("step timed out",
			observability.String("step", name),
			observability.Duration("after", sr.Duration),
		)
	case err != nil:
		sr.Status = StatusFailure
		sr.ExitCode = -1
		sr.ErrOutput = appendLine(sr.ErrOutput, err.Error())
		r.logger.Error("step failed", observability.String("step", name), observability.Err(err))
	case code != 0:
		sr.Status = StatusFailure
		sr.ExitCode = code
		r.logger.Error("step exited non-zero",
			observability.String("step", name),
			observability.Int("exit_code", code),
		)
	default:
		sr.ExitCode = 0
		r.logger.Info("step succeeded",
			observability.String("step", name),
			observability.Duration("duration", sr.Duration),
		)
	}

	if key != "" && sr.Status == StatusSuccess {
		if data, err := encodeStepResult(sr); err == nil {
			if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
				r.logger.Warn("cache write failed", observability.String("step", name), observability.Err(err))
			}
		}
	}
	return sr
}

// registerSecrets collects declared env values whose keys look like
// credentials so they are masked in captured output.
func (r *Runner) registerSecrets(p *pipeline.Pipeline) {
	collect := func(env map[string]string) {
		for k, v := range env {
			if security.LooksSecret(k) {
				r.redactor.Add(v)
			}
		}
	}
	collect(p.Env)
	for _, job := range p.Jobs {
		if job == nil {
			continue
		}
		collect(job.Env)
		for _, step := range job.Steps {
			if step == nil {
				continue
			}
			collect(step.Env)
		}
	}
}

// warnOnTokens logs when step output contains credential-shaped tokens
// that were not registered as secrets.
func (r *Runner) warnOnTokens(step, output string) {
	for _, f := range security.ScanTokens(output) {
		r.logger.Warn("credential-shaped token in step output",
			observability.String("step", step),
			observability.String("category", f.Category),
			observability.Int("count", f.Count),
		)
	}
}

func (r *Runner) stepTimeout(step *pipeline.Step) time.Duration {
	if step.TimeoutMinutes > 0 {
		return time.Duration(step.TimeoutMinutes) * time.Minute
	}
	return r.defaultTimeout
}

// resolveDir resolves a step working directory against the runner's
// work directory.
func (r *Runner) resolveDir(dir string) string {
	if r.workDir == "" {
		return dir
	}
	if dir == "" {
		return r.workDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.workDir, dir)
}

// mergeEnv flattens env layers, later layers overriding earlier ones.
func mergeEnv(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// stepLabel names a step for results and logs.
func stepLabel(i int, step *pipeline.Step) string {
	if step.Name != "" {
		return step.Name
	}
	run := strings.TrimSpace(step.Run)
	if idx := strings.IndexByte(run, '\n'); idx >= 0 {
		run = run[:idx]
	}
	if run != "" {
		return run
	}
	return fmt.Sprintf("step %d", i+1)
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	return s + "\n" + line
}
