// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipping: sh not available: %v", err)
	}
}

func TestNewStepProcess(t *testing.T) {
	p := NewStepProcess("echo", []string{"hello"})

	if p == nil {
		t.Fatal("NewStepProcess() returned nil")
	}
	if p.IsRunning() {
		t.Error("new process should not be running")
	}
}

func TestStepProcessNotFound(t *testing.T) {
	p := NewStepProcess("nonexistent-binary-12345", nil)

	err := p.Start(context.Background())
	if err == nil {
		t.Fatal("expected start to fail for missing binary")
	}
}

func TestStepProcessDoubleStart(t *testing.T) {
	requireShell(t)

	p := NewStepProcess("sh", []string{"-c", "true"})
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer func() { _, _ = p.Wait(ctx) }()

	if err := p.Start(ctx); !errors.Is(err, ErrProcessAlreadyRun) {
		t.Errorf("expected ErrProcessAlreadyRun, got %v", err)
	}
}

func TestStepProcessCapturesStdout(t *testing.T) {
	requireShell(t)

	p := NewStepProcess("sh", []string{"-c", "echo hello world"})
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	code, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got := p.Stdout(); !strings.Contains(got, "hello world") {
		t.Errorf("stdout = %q, want it to contain %q", got, "hello world")
	}
	if p.IsRunning() {
		t.Error("process should not be running after Wait")
	}
}

func TestStepProcessCapturesStderr(t *testing.T) {
	requireShell(t)

	p := NewStepProcess("sh", []string{"-c", "echo oops >&2"})
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if _, err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if got := p.Stderr(); !strings.Contains(got, "oops") {
		t.Errorf("stderr = %q, want it to contain %q", got, "oops")
	}
}

func TestStepProcessNonZeroExit(t *testing.T) {
	requireShell(t)

	p := NewStepProcess("sh", []string{"-c", "exit 3"})
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	code, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() should report a non-zero exit as a result, got error %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestStepProcessTimeout(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	p := NewStepProcess("sh", []string{"-c", "sleep 10"})
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	started := time.Now()
	_, err := p.Wait(ctx)
	if !errors.Is(err, ErrStepTimeout) {
		t.Fatalf("expected ErrStepTimeout, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 8*time.Second {
		t.Errorf("timed-out process took %v to reap", elapsed)
	}
}

func TestStepProcessEnv(t *testing.T) {
	requireShell(t)

	env := append(os.Environ(), "PHASER_TEST_VALUE=first", "PHASER_TEST_VALUE=second")
	p := NewStepProcess("sh", []string{"-c", "echo $PHASER_TEST_VALUE"}).WithEnv(env)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}

	// Duplicate keys resolve to the last entry.
	if got := strings.TrimSpace(p.Stdout()); got != "second" {
		t.Errorf("stdout = %q, want %q", got, "second")
	}
}

func TestStepProcessDir(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "marker.txt")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewStepProcess("sh", []string{"-c", "ls"}).WithDir(dir)
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}

	if got := p.Stdout(); !strings.Contains(got, "marker.txt") {
		t.Errorf("stdout = %q, want it to list marker.txt", got)
	}
}

func TestShellArgv(t *testing.T) {
	tests := []struct {
		name       string
		shell      string
		run        string
		wantBinary string
		wantArgs   []string
		wantErr    bool
	}{
		{name: "sh", shell: "sh", run: "go test ./...", wantBinary: "sh", wantArgs: []string{"-c", "go test ./..."}},
		{name: "bash", shell: "bash", run: "echo hi", wantBinary: "bash", wantArgs: []string{"-c", "echo hi"}},
		{name: "none splits argv", shell: "none", run: `go vet ./...`, wantBinary: "go", wantArgs: []string{"vet", "./..."}},
		{name: "none honors quotes", shell: "none", run: `git commit -m "a message"`, wantBinary: "git", wantArgs: []string{"commit", "-m", "a message"}},
		{name: "none empty", shell: "none", run: "   ", wantErr: true},
		{name: "unknown shell", shell: "zsh", run: "echo hi", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binary, args, err := shellArgv(tt.shell, tt.run)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("shellArgv() failed: %v", err)
			}
			if binary != tt.wantBinary {
				t.Errorf("binary = %q, want %q", binary, tt.wantBinary)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %q, want %q", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
