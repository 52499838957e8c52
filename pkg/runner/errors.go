// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package runner

import "errors"

var (
	ErrToolchainNotFound = errors.New("go toolchain not found in PATH")
	ErrProcessNotRunning = errors.New("process is not running")
	ErrProcessAlreadyRun = errors.New("process has already been started")
	ErrStepTimeout       = errors.New("step timed out")
	ErrNilPipeline       = errors.New("pipeline is nil")
)
