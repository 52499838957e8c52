package gitctx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/phaser-svc/phaser/pkg/perf"
	"github.com/phaser-svc/phaser/pkg/pipeline"
)

// Info describes the git state of a working tree.
type Info struct {
	Provider Provider
	Branch   string
	Commit   string
	Dirty    bool
}

// Describe resolves branch, commit and worktree state for dir. CI
// provider env vars take precedence; anything missing is read from git
// itself. A provider-prepared checkout is taken as clean.
func Describe(ctx context.Context, dir string) (*Info, error) {
	info := &Info{Provider: Detect()}
	info.Branch = envBranch(info.Provider)
	info.Commit = envCommit(info.Provider)

	if info.Branch != "" && info.Commit != "" {
		return info, nil
	}

	results, err := perf.Parallel(ctx,
		func() (string, error) { return gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD") },
		func() (string, error) { return gitOutput(ctx, dir, "rev-parse", "HEAD") },
		func() (string, error) { return gitOutput(ctx, dir, "status", "--porcelain") },
	)
	if err != nil {
		return nil, fmt.Errorf("describe worktree %s: %w", dir, err)
	}

	if info.Branch == "" {
		info.Branch = results[0]
	}
	if info.Commit == "" {
		info.Commit = results[1]
	}
	info.Dirty = results[2] != ""
	return info, nil
}

// gitOutput runs a git command in dir and returns its trimmed stdout.
func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// PushEventFromEnv builds the push event the current CI run was
// triggered by. It returns false when the environment does not describe
// a branch push (local shell, tag build, ...).
func PushEventFromEnv() (*pipeline.PushEvent, bool) {
	provider := Detect()
	branch := envBranch(provider)
	if branch == "" {
		return nil, false
	}
	if provider == ProviderGitHub && os.Getenv("GITHUB_REF_TYPE") == "tag" {
		return nil, false
	}

	event := &pipeline.PushEvent{
		Branch: branch,
		Commit: envCommit(provider),
		Ref:    "refs/heads/" + branch,
	}
	if provider == ProviderGitHub {
		if ref := os.Getenv("GITHUB_REF"); ref != "" {
			event.Ref = ref
		}
	}
	return event, true
}
