//go:build tools

// Package tools pins development tool dependencies so they stay
// versioned in go.mod. Nothing here is linked into the phaser binary.
package tools

import (
// Lint and formatting tools, enabled per environment:
// _ "github.com/golangci/golangci-lint/cmd/golangci-lint"
// _ "mvdan.cc/gofumpt"
)
