// Package main provides the phaser CLI application.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phaser-svc/phaser/pkg/pipeline"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the pipeline file without running it",
	Long: `Validate the pipeline file and print the resolved run plan.

The pipeline is parsed, checked and ordered exactly as the run command
would, but no step executes. With --branch the command also reports
whether a push to that branch would trigger the pipeline.`,
	RunE: validatePipeline,
}

// validateFlags holds the flags for the validate command
type validateFlags struct {
	pipeline string
	branch   string
}

var validateOpts validateFlags

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateOpts.pipeline, "pipeline", "p", "", "Path to the pipeline file")
	validateCmd.Flags().StringVar(&validateOpts.branch, "branch", "", "Report whether a push to this branch triggers the pipeline")
}

func validatePipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, path, err := resolvePipeline(cfg, validateOpts.pipeline)
	if err != nil {
		return err
	}
	levels, err := p.ExecutionLevels()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pipeline %s is valid (%s)\n", p.Name, path)
	if p.Toolchain.Go != "" {
		fmt.Fprintf(out, "toolchain: go %s\n", p.Toolchain.Go)
	}
	fmt.Fprintf(out, "jobs: %d\n", len(p.Jobs))
	for i, level := range levels {
		fmt.Fprintf(out, "  stage %d: %s\n", i+1, strings.Join(level, ", "))
	}

	if validateOpts.branch != "" {
		ev := pipeline.PushEvent{
			Branch: validateOpts.branch,
			Ref:    "refs/heads/" + validateOpts.branch,
		}
		verdict := "does not trigger"
		if p.On.Matches(ev) {
			verdict = "triggers"
		}
		fmt.Fprintf(out, "a push to %s %s this pipeline\n", validateOpts.branch, verdict)
	}
	return nil
}
