// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/shlex"

	"github.com/phaser-svc/phaser/pkg/pipeline"
)

// stopGracePeriod is how long a step gets between SIGTERM and SIGKILL
// when its context expires.
const stopGracePeriod = 5 * time.Second

// StepProcess manages one step subprocess: start, output capture, and
// graceful termination.
type StepProcess struct {
	mu sync.RWMutex

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	binary  string
	args    []string
	dir     string
	env     []string
	started bool
	exited  bool

	// Output buffers
	stdoutBuf bytes.Buffer
	stderrBuf bytes.Buffer

	// Wait channel
	waitCh   chan error
	exitCode int
}

// NewStepProcess creates a process for the given binary and arguments.
func NewStepProcess(binary string, args []string) *StepProcess {
	return &StepProcess{
		binary: binary,
		args:   args,
		waitCh: make(chan error, 1),
	}
}

// WithDir sets the working directory.
func (p *StepProcess) WithDir(dir string) *StepProcess {
	p.dir = dir
	return p
}

// WithEnv sets the environment. Later entries override earlier ones
// with the same key.
func (p *StepProcess) WithEnv(env []string) *StepProcess {
	p.env = env
	return p
}

// Start starts the subprocess. When ctx expires the process receives
// SIGTERM, then SIGKILL after the grace period.
func (p *StepProcess) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrProcessAlreadyRun
	}

	p.cmd = exec.CommandContext(ctx, p.binary, p.args...)
	p.cmd.Dir = p.dir
	p.cmd.Env = p.env
	p.cmd.WaitDelay = stopGracePeriod
	cmd := p.cmd
	p.cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}

	var err error
	p.stdout, err = p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	p.stderr, err = p.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.binary, err)
	}

	p.started = true

	go p.captureOutput(p.stdout, &p.stdoutBuf)
	go p.captureOutput(p.stderr, &p.stderrBuf)

	go func() {
		err := p.cmd.Wait()
		p.mu.Lock()
		p.exited = true
		if p.cmd.ProcessState != nil {
			p.exitCode = p.cmd.ProcessState.ExitCode()
		}
		p.mu.Unlock()
		p.waitCh <- err
	}()

	return nil
}

// captureOutput captures output from a reader into a buffer.
// Uses chunked reads instead of a scanner to avoid line length limits.
func (p *StepProcess) captureOutput(r io.Reader, buf *bytes.Buffer) {
	copyBuf := make([]byte, 32*1024)
	for {
		n, err := r.Read(copyBuf)
		if n > 0 {
			p.mu.Lock()
			buf.Write(copyBuf[:n])
			p.mu.Unlock()
		}
		if err != nil {
			break
		}
	}
}

// Wait blocks until the process exits. A non-zero exit is a result,
// not an error: Wait returns (code, nil). Context expiry returns
// ErrStepTimeout after the process has been reaped.
func (p *StepProcess) Wait(ctx context.Context) (int, error) {
	select {
	case err := <-p.waitCh:
		p.mu.RLock()
		code := p.exitCode
		p.mu.RUnlock()

		if err != nil {
			if ctx.Err() != nil {
				return -1, ErrStepTimeout
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return code, nil
			}
			// The process exited but held pipes were force-closed.
			if errors.Is(err, exec.ErrWaitDelay) {
				return code, nil
			}
			return -1, fmt.Errorf("wait for %s: %w", p.binary, err)
		}
		return code, nil

	case <-ctx.Done():
		_ = p.Kill()
		<-p.waitCh
		return -1, ErrStepTimeout
	}
}

// Stop sends SIGTERM for a graceful shutdown.
func (p *StepProcess) Stop() error {
	p.mu.RLock()
	if !p.started || p.exited {
		p.mu.RUnlock()
		return nil
	}
	cmd := p.cmd
	p.mu.RUnlock()

	if cmd.Process == nil {
		return nil
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process might have already exited
		if !strings.Contains(err.Error(), "process already finished") {
			return fmt.Errorf("send SIGTERM: %w", err)
		}
	}
	return nil
}

// Kill forcefully kills the process.
func (p *StepProcess) Kill() error {
	p.mu.RLock()
	if !p.started || p.exited {
		p.mu.RUnlock()
		return nil
	}
	cmd := p.cmd
	p.mu.RUnlock()

	if cmd.Process == nil {
		return nil
	}

	if err := cmd.Process.Kill(); err != nil {
		if !strings.Contains(err.Error(), "process already finished") {
			return fmt.Errorf("kill process: %w", err)
		}
	}
	return nil
}

// IsRunning checks if the process is running.
func (p *StepProcess) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started && !p.exited
}

// ExitCode returns the process exit code.
func (p *StepProcess) ExitCode() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitCode
}

// Stdout returns the captured stdout.
func (p *StepProcess) Stdout() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stdoutBuf.String()
}

// Stderr returns the captured stderr.
func (p *StepProcess) Stderr() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stderrBuf.String()
}

// shellArgv resolves a step's run line into a binary and arguments
// according to its shell setting. An empty shell means sh, matching
// the document defaults.
func shellArgv(shell, run string) (string, []string, error) {
	switch shell {
	case pipeline.ShellSh, "":
		return "sh", []string{"-c", run}, nil
	case pipeline.ShellBash:
		return "bash", []string{"-c", run}, nil
	case pipeline.ShellNone:
		parts, err := shlex.Split(run)
		if err != nil {
			return "", nil, fmt.Errorf("parse argv: %w", err)
		}
		if len(parts) == 0 {
			return "", nil, fmt.Errorf("empty command")
		}
		return parts[0], parts[1:], nil
	default:
		return "", nil, fmt.Errorf("unknown shell %q", shell)
	}
}
