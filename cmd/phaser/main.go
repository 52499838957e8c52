// Package main is the entry point for the phaser CLI.
package main

import (
	"fmt"
	"os"

	"github.com/phaser-svc/phaser/pkg/errors"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "phaser:", err)
		os.Exit(errors.ExitCode(err))
	}
}
