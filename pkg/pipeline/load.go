// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/phaser-svc/phaser/pkg/errors"
)

// DefaultFiles are the pipeline file names searched for, in order.
var DefaultFiles = []string{
	".phaser.yaml",
	".phaser.yml",
	"phaser.yaml",
	"phaser.yml",
}

// Load reads and parses the pipeline file at path.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.PipelineError(fmt.Sprintf("failed to read pipeline file: %s", path), err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes data strictly (unknown keys are errors), applies
// defaults and validates the result.
func Parse(data []byte) (*Pipeline, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Pipeline
	if err := dec.Decode(&p); err != nil {
		return nil, errors.PipelineError("failed to parse pipeline", err)
	}

	applyDefaults(&p)

	if err := p.Validate(); err != nil {
		return nil, errors.ValidationError("pipeline validation failed", err)
	}
	return &p, nil
}

// Find walks from startDir towards the filesystem root and returns the
// first pipeline file found.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, filename := range DefaultFiles {
			path := filepath.Join(dir, filename)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.PipelineError(fmt.Sprintf("no pipeline file found in %s or any parent directory", startDir), nil)
}

// LoadDefault finds and loads the nearest pipeline file, returning the
// parsed pipeline and the path it came from.
func LoadDefault(startDir string) (*Pipeline, string, error) {
	path, err := Find(startDir)
	if err != nil {
		return nil, "", err
	}
	p, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return p, path, nil
}
