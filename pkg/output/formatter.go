// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package output renders run results for terminals and machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/phaser-svc/phaser/pkg/runner"
)

// Format selects a result rendering.
type Format string

const (
	// FormatText is the human-readable terminal rendering.
	FormatText Format = "text"
	// FormatJSON renders the full result document as indented JSON.
	FormatJSON Format = "json"
)

// errOutputTail caps how many trailing stderr lines a failure detail
// shows.
const errOutputTail = 15

// ParseFormat resolves a format name. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// Formatter renders run results.
type Formatter struct {
	format  Format
	verbose bool
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) *Formatter {
	return &Formatter{format: format}
}

// WithVerbose makes the text rendering include captured step output
// for successful steps as well.
func (f *Formatter) WithVerbose(verbose bool) *Formatter {
	f.verbose = verbose
	return f
}

// Format renders the result as a string.
func (f *Formatter) Format(res *runner.RunResult) (string, error) {
	if res == nil {
		return "", fmt.Errorf("no result to format")
	}
	if f.format == FormatJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		return string(data) + "\n", nil
	}
	return f.text(res), nil
}

// Write renders the result to w.
func (f *Formatter) Write(w io.Writer, res *runner.RunResult) error {
	s, err := f.Format(res)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

func (f *Formatter) text(res *runner.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "pipeline %s: %s", res.Pipeline, res.Status)
	if res.DryRun {
		b.WriteString(" (dry run)")
	}
	b.WriteByte('\n')

	if res.Branch != "" || res.Commit != "" {
		fmt.Fprintf(&b, "branch %s commit %s\n", orDash(res.Branch), orDash(shortCommit(res.Commit)))
	}
	if res.GoVersion != "" {
		fmt.Fprintf(&b, "go %s\n", res.GoVersion)
	}
	fmt.Fprintf(&b, "duration %s\n\n", roundDuration(res.Duration))

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tSTATUS\tDURATION\tSTEPS")
	for _, job := range res.Jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			job.ID, job.Status, roundDuration(job.Duration), stepTally(job))
	}
	w.Flush()

	f.writeDetails(&b, res)
	return b.String()
}

// writeDetails appends per-step sections: failures always, everything
// else only in verbose mode.
func (f *Formatter) writeDetails(b *strings.Builder, res *runner.RunResult) {
	for _, job := range res.Jobs {
		for _, step := range job.Steps {
			failed := step.Status == runner.StatusFailure
			if !failed && !f.verbose {
				continue
			}
			if step.Status == runner.StatusSkipped {
				continue
			}

			fmt.Fprintf(b, "\n%s / %s: %s", job.ID, step.Name, stepVerdict(step))
			if step.Cached {
				b.WriteString(" (cached)")
			}
			b.WriteByte('\n')

			if failed && step.ErrOutput != "" {
				writeIndented(b, tail(step.ErrOutput, errOutputTail))
			}
			if f.verbose && step.Output != "" {
				writeIndented(b, tail(step.Output, errOutputTail))
			}
		}
	}
}

func stepVerdict(step *runner.StepResult) string {
	switch {
	case step.TimedOut:
		return fmt.Sprintf("timed out after %s", roundDuration(step.Duration))
	case step.Status == runner.StatusFailure:
		return fmt.Sprintf("exit %d (%s)", step.ExitCode, roundDuration(step.Duration))
	default:
		return fmt.Sprintf("ok (%s)", roundDuration(step.Duration))
	}
}

// stepTally summarizes a job's steps as "succeeded/total".
func stepTally(job *runner.JobResult) string {
	if job.Status == runner.StatusSkipped {
		return "-"
	}
	ok := 0
	for _, step := range job.Steps {
		if step.Status == runner.StatusSuccess {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d", ok, len(job.Steps))
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func roundDuration(d time.Duration) time.Duration {
	if d >= time.Second {
		return d.Round(100 * time.Millisecond)
	}
	return d.Round(time.Millisecond)
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func writeIndented(b *strings.Builder, s string) {
	for _, line := range strings.Split(s, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
}
