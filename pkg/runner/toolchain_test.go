package runner

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func TestParseGoVersion(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		wantRaw string
		wantVer string
		wantErr bool
	}{
		{
			name:    "release",
			out:     "go version go1.21.5 linux/amd64",
			wantRaw: "go1.21.5",
			wantVer: "1.21.5",
		},
		{
			name:    "two segment release",
			out:     "go version go1.22 windows/amd64",
			wantRaw: "go1.22",
			wantVer: "1.22.0",
		},
		{
			name:    "devel build with target release",
			out:     "go version devel go1.23-a1b2c3d4 linux/amd64",
			wantRaw: "go1.23",
			wantVer: "1.23.0",
		},
		{
			name:    "garbage",
			out:     "gopher 3000",
			wantErr: true,
		},
		{
			name:    "empty",
			out:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ver, err := ParseGoVersion(tt.out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %q", raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGoVersion() failed: %v", err)
			}
			if raw != tt.wantRaw {
				t.Errorf("raw = %q, want %q", raw, tt.wantRaw)
			}
			if ver.String() != tt.wantVer {
				t.Errorf("version = %q, want %q", ver.String(), tt.wantVer)
			}
		})
	}
}

func TestToolchainCheck(t *testing.T) {
	_, ver, err := ParseGoVersion("go version go1.21.5 linux/amd64")
	if err != nil {
		t.Fatal(err)
	}
	tc := &Toolchain{Version: ver, Raw: "go1.21.5"}

	tests := []struct {
		name       string
		constraint string
		wantErr    bool
	}{
		{name: "empty always passes", constraint: ""},
		{name: "minimum met", constraint: ">= 1.21"},
		{name: "minimum not met", constraint: ">= 1.22", wantErr: true},
		{name: "pessimistic match", constraint: "~> 1.21.0"},
		{name: "pessimistic mismatch", constraint: "~> 1.20.0", wantErr: true},
		{name: "range", constraint: ">= 1.20, < 1.22"},
		{name: "malformed", constraint: "banana", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tc.Check(tt.constraint)
			if tt.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Check(%q) failed: %v", tt.constraint, err)
			}
		})
	}
}

func TestProbeToolchain(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skipf("skipping: go not available: %v", err)
	}

	tc, err := ProbeToolchain(context.Background())
	if err != nil {
		t.Fatalf("ProbeToolchain() failed: %v", err)
	}
	if tc.Version == nil {
		t.Fatal("Version is nil")
	}
	if !strings.HasPrefix(tc.Raw, "go") {
		t.Errorf("Raw = %q, want a go* release name", tc.Raw)
	}
	if tc.Path == "" {
		t.Error("Path is empty")
	}
}
