// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var (
	jobIDPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

var validShells = map[string]bool{
	ShellSh:   true,
	ShellBash: true,
	ShellNone: true,
}

// Validate checks the whole document. It expects defaults to be
// applied already, as Parse does.
func (p *Pipeline) Validate() error {
	if p == nil {
		return fmt.Errorf("pipeline is nil")
	}

	if p.On.Push == nil {
		return fmt.Errorf("on: a push trigger is required")
	}
	if err := p.On.Push.Validate(); err != nil {
		return fmt.Errorf("on.push: %w", err)
	}

	if p.Toolchain.Go != "" {
		if _, err := goversion.NewConstraint(p.Toolchain.Go); err != nil {
			return fmt.Errorf("toolchain.go: invalid constraint %q: %w", p.Toolchain.Go, err)
		}
	}

	if p.Defaults.Shell != "" && !validShells[p.Defaults.Shell] {
		return fmt.Errorf("defaults.shell: invalid shell %q (must be sh, bash, or none)", p.Defaults.Shell)
	}

	if err := validateEnv(p.Env); err != nil {
		return fmt.Errorf("env: %w", err)
	}

	if len(p.Jobs) == 0 {
		return fmt.Errorf("jobs: at least one job is required")
	}
	if len(p.Jobs) > MaxJobs {
		return fmt.Errorf("jobs: %d jobs exceed the maximum of %d", len(p.Jobs), MaxJobs)
	}

	for _, id := range sortedJobIDs(p.Jobs) {
		job := p.Jobs[id]
		if !jobIDPattern.MatchString(id) {
			return fmt.Errorf("jobs: invalid job id %q", id)
		}
		if job == nil {
			return fmt.Errorf("jobs.%s: job is empty", id)
		}
		if err := job.Validate(); err != nil {
			return fmt.Errorf("jobs.%s: %w", id, err)
		}

		seen := make(map[string]bool, len(job.Needs))
		for _, need := range job.Needs {
			if need == id {
				return fmt.Errorf("jobs.%s: needs itself", id)
			}
			if _, ok := p.Jobs[need]; !ok {
				return fmt.Errorf("jobs.%s: needs unknown job %q", id, need)
			}
			if seen[need] {
				return fmt.Errorf("jobs.%s: duplicate needs entry %q", id, need)
			}
			seen[need] = true
		}
	}

	if _, err := p.ExecutionLevels(); err != nil {
		return err
	}
	return nil
}

// Validate checks a single job.
func (j *Job) Validate() error {
	if j.TimeoutMinutes < 0 {
		return fmt.Errorf("timeout-minutes must be non-negative")
	}
	if j.TimeoutMinutes > MaxTimeoutMinutes {
		return fmt.Errorf("timeout-minutes must not exceed %d", MaxTimeoutMinutes)
	}

	if err := validateEnv(j.Env); err != nil {
		return fmt.Errorf("env: %w", err)
	}

	if len(j.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	if len(j.Steps) > MaxSteps {
		return fmt.Errorf("%d steps exceed the maximum of %d", len(j.Steps), MaxSteps)
	}
	for i, step := range j.Steps {
		if step == nil {
			return fmt.Errorf("steps[%d]: step is empty", i)
		}
		if err := step.Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single step.
func (s *Step) Validate() error {
	if strings.TrimSpace(s.Run) == "" {
		return fmt.Errorf("run is required")
	}
	if s.Shell != "" && !validShells[s.Shell] {
		return fmt.Errorf("invalid shell %q (must be sh, bash, or none)", s.Shell)
	}
	if s.TimeoutMinutes < 0 {
		return fmt.Errorf("timeout-minutes must be non-negative")
	}
	if s.TimeoutMinutes > MaxTimeoutMinutes {
		return fmt.Errorf("timeout-minutes must not exceed %d", MaxTimeoutMinutes)
	}
	if err := validateEnv(s.Env); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	return nil
}

func validateEnv(env map[string]string) error {
	for key := range env {
		if !envKeyPattern.MatchString(key) {
			return fmt.Errorf("invalid variable name %q", key)
		}
	}
	return nil
}

// ExecutionLevels orders jobs into layers by their needs: every job in
// a layer only depends on jobs from earlier layers. Jobs within a
// layer are sorted by id. An unsatisfiable ordering reports the cycle
// members.
func (p *Pipeline) ExecutionLevels() ([][]string, error) {
	indegree := make(map[string]int, len(p.Jobs))
	dependents := make(map[string][]string, len(p.Jobs))
	for id, job := range p.Jobs {
		count := 0
		if job != nil {
			count = len(job.Needs)
			for _, need := range job.Needs {
				dependents[need] = append(dependents[need], id)
			}
		}
		indegree[id] = count
	}

	var ready []string
	for id, degree := range indegree {
		if degree == 0 {
			ready = append(ready, id)
		}
	}

	var levels [][]string
	processed := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		levels = append(levels, ready)
		processed += len(ready)

		var next []string
		for _, id := range ready {
			for _, dependent := range dependents[id] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		ready = next
	}

	if processed != len(p.Jobs) {
		var stuck []string
		for id, degree := range indegree {
			if degree > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("jobs: dependency cycle among %s", strings.Join(stuck, ", "))
	}
	return levels, nil
}

func sortedJobIDs(jobs map[string]*Job) []string {
	ids := make([]string, 0, len(jobs))
	for id := range jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
