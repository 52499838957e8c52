// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package pipeline defines the pipeline document model: push triggers,
// jobs and steps, plus loading, defaulting and validation.
package pipeline

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Supported step shells.
const (
	// ShellSh runs the step via "sh -c".
	ShellSh = "sh"
	// ShellBash runs the step via "bash -c".
	ShellBash = "bash"
	// ShellNone splits the run line into argv and executes it directly.
	ShellNone = "none"
)

const (
	// MaxJobs is the maximum number of jobs in a pipeline.
	MaxJobs = 100
	// MaxSteps is the maximum number of steps in a job.
	MaxSteps = 100
	// MaxTimeoutMinutes is the maximum job or step timeout.
	MaxTimeoutMinutes = 360
)

// Pipeline is a parsed pipeline document.
type Pipeline struct {
	Name      string            `yaml:"name"`
	On        Triggers          `yaml:"on"`
	Env       map[string]string `yaml:"env"`
	Toolchain Toolchain         `yaml:"toolchain"`
	Defaults  Defaults          `yaml:"defaults"`
	Jobs      map[string]*Job   `yaml:"jobs"`
}

// Toolchain states requirements on the build toolchain.
type Toolchain struct {
	// Go is a version constraint such as ">= 1.21" or "~> 1.21.0".
	Go string `yaml:"go"`
}

// Defaults are pipeline-wide step defaults.
type Defaults struct {
	Shell string `yaml:"shell"`
	Dir   string `yaml:"working-directory"`
}

// Job is a named group of sequential steps.
type Job struct {
	Name           string            `yaml:"name"`
	Needs          StringList        `yaml:"needs"`
	Env            map[string]string `yaml:"env"`
	TimeoutMinutes int               `yaml:"timeout-minutes"`
	Steps          []*Step           `yaml:"steps"`
}

// Step is a single command execution.
type Step struct {
	Name            string            `yaml:"name"`
	Run             string            `yaml:"run"`
	Shell           string            `yaml:"shell"`
	Env             map[string]string `yaml:"env"`
	Dir             string            `yaml:"working-directory"`
	TimeoutMinutes  int               `yaml:"timeout-minutes"`
	ContinueOnError bool              `yaml:"continue-on-error"`
}

// StringList decodes from either a single YAML scalar or a sequence of
// scalars, so "needs: build" and "needs: [build, lint]" both work.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = StringList(list)
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// applyDefaults fills unset optional fields in place.
func applyDefaults(p *Pipeline) {
	if p.Name == "" {
		p.Name = "pipeline"
	}
	if p.Defaults.Shell == "" {
		p.Defaults.Shell = ShellSh
	}
	for id, job := range p.Jobs {
		if job == nil {
			continue
		}
		if job.Name == "" {
			job.Name = id
		}
		for _, step := range job.Steps {
			if step == nil {
				continue
			}
			if step.Shell == "" {
				step.Shell = p.Defaults.Shell
			}
			if step.Dir == "" {
				step.Dir = p.Defaults.Dir
			}
		}
	}
}
