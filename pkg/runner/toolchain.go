package runner

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// goVersionPattern extracts the release from "go version go1.22.1 linux/amd64".
var goVersionPattern = regexp.MustCompile(`\bgo(\d+(?:\.\d+)+)\b`)

// Toolchain describes the Go toolchain resolved for a run.
type Toolchain struct {
	// Version is the parsed release, e.g. 1.22.1.
	Version *goversion.Version
	// Raw is the toolchain's own naming, e.g. "go1.22.1".
	Raw string
	// Path is the resolved binary location.
	Path string
}

// ProbeToolchain locates the go binary and reports its version.
func ProbeToolchain(ctx context.Context) (*Toolchain, error) {
	path, err := exec.LookPath("go")
	if err != nil {
		return nil, ErrToolchainNotFound
	}

	out, err := exec.CommandContext(ctx, path, "version").Output()
	if err != nil {
		return nil, fmt.Errorf("go version: %w", err)
	}

	raw, ver, err := ParseGoVersion(string(out))
	if err != nil {
		return nil, err
	}
	return &Toolchain{Version: ver, Raw: raw, Path: path}, nil
}

// ParseGoVersion extracts the toolchain release from `go version`
// output. Development builds without a release number are rejected.
func ParseGoVersion(out string) (string, *goversion.Version, error) {
	m := goVersionPattern.FindStringSubmatch(out)
	if m == nil {
		return "", nil, fmt.Errorf("unrecognized go version output %q", strings.TrimSpace(out))
	}

	ver, err := goversion.NewVersion(m[1])
	if err != nil {
		return "", nil, fmt.Errorf("parse go version %q: %w", m[1], err)
	}
	return m[0], ver, nil
}

// Check enforces a pipeline toolchain constraint such as ">= 1.21".
// An empty constraint always passes.
func (t *Toolchain) Check(constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}

	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("toolchain constraint %q: %w", constraint, err)
	}
	if !c.Check(t.Version) {
		return fmt.Errorf("toolchain %s does not satisfy %q", t.Raw, constraint)
	}
	return nil
}
