package errors_test

import (
	"errors"
	"fmt"
	"testing"

	phaserrors "github.com/phaser-svc/phaser/pkg/errors"
)

func TestErrorMessage(t *testing.T) {
	err := phaserrors.New(phaserrors.ErrPipeline, "cannot parse pipeline", nil)

	want := "[PIPELINE] cannot parse pipeline"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageWithCause(t *testing.T) {
	cause := errors.New("yaml: line 3: mapping values are not allowed")
	err := phaserrors.PipelineError("cannot parse pipeline", cause)

	want := "[PIPELINE] cannot parse pipeline: yaml: line 3: mapping values are not allowed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := phaserrors.StepError("step failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestIsType(t *testing.T) {
	err := phaserrors.ToolchainError("go not found", nil)

	if !phaserrors.IsType(err, phaserrors.ErrToolchain) {
		t.Error("IsType should match ErrToolchain")
	}
	if phaserrors.IsType(err, phaserrors.ErrStep) {
		t.Error("IsType should not match ErrStep")
	}
	if phaserrors.IsType(nil, phaserrors.ErrStep) {
		t.Error("IsType should return false for nil error")
	}
}

func TestIsTypeWrapped(t *testing.T) {
	inner := phaserrors.TimeoutError("job deadline exceeded", nil)
	wrapped := fmt.Errorf("running job: %w", inner)

	if !phaserrors.IsType(wrapped, phaserrors.ErrTimeout) {
		t.Error("IsType should see through fmt.Errorf wrapping")
	}
}

func TestWithContext(t *testing.T) {
	err := phaserrors.StepError("exit status 1", nil).
		WithContext("job", "lint").
		WithContext("step", 2)

	if err.Context["job"] != "lint" {
		t.Errorf("Context[job] = %v, want lint", err.Context["job"])
	}
	if err.Context["step"] != 2 {
		t.Errorf("Context[step] = %v, want 2", err.Context["step"])
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, phaserrors.ExitSuccess},
		{"step failure", phaserrors.StepError("exit status 1", nil), phaserrors.ExitStepFailure},
		{"timeout", phaserrors.TimeoutError("deadline", nil), phaserrors.ExitTimeout},
		{"config", phaserrors.ConfigError("bad config", nil), phaserrors.ExitConfigError},
		{"pipeline", phaserrors.PipelineError("bad yaml", nil), phaserrors.ExitConfigError},
		{"toolchain", phaserrors.ToolchainError("go missing", nil), phaserrors.ExitConfigError},
		{"plain error", errors.New("something"), phaserrors.ExitConfigError},
		{"wrapped timeout", fmt.Errorf("run: %w", phaserrors.TimeoutError("deadline", nil)), phaserrors.ExitTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := phaserrors.ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
