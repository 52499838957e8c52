package runner

import (
	"time"

	"github.com/phaser-svc/phaser/pkg/errors"
)

// Status is the outcome of a run, job, or step.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// StepResult records a single step execution.
type StepResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	ExitCode  int           `json:"exit_code"`
	Output    string        `json:"output,omitempty"`
	ErrOutput string        `json:"err_output,omitempty"`
	Cached    bool          `json:"cached,omitempty"`
	TimedOut  bool          `json:"timed_out,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// JobResult records a job and its steps.
type JobResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Steps    []*StepResult `json:"steps"`
	Duration time.Duration `json:"duration"`
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	ID        string        `json:"id"`
	Pipeline  string        `json:"pipeline"`
	Branch    string        `json:"branch,omitempty"`
	Commit    string        `json:"commit,omitempty"`
	GoVersion string        `json:"go_version,omitempty"`
	Status    Status        `json:"status"`
	Jobs      []*JobResult  `json:"jobs"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run,omitempty"`
}

// Failed reports whether any job failed.
func (r *RunResult) Failed() bool {
	return r.Status == StatusFailure
}

// Job returns the result for a job id, or nil.
func (r *RunResult) Job(id string) *JobResult {
	for _, j := range r.Jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// ExitCode maps the run outcome to a process exit code. A timed-out
// step takes precedence over a plain step failure.
func (r *RunResult) ExitCode() int {
	if r.timedOut() {
		return errors.ExitTimeout
	}
	if r.Failed() {
		return errors.ExitStepFailure
	}
	return errors.ExitSuccess
}

func (r *RunResult) timedOut() bool {
	for _, j := range r.Jobs {
		for _, s := range j.Steps {
			if s.TimedOut {
				return true
			}
		}
	}
	return false
}
