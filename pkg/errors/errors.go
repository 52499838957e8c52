// Package errors provides typed errors for phaser
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a tool configuration error
	ErrConfig ErrorType = iota
	// ErrPipeline indicates a pipeline file load or parse error
	ErrPipeline
	// ErrTrigger indicates a trigger definition error
	ErrTrigger
	// ErrToolchain indicates a toolchain probe or constraint error
	ErrToolchain
	// ErrStep indicates a step execution failure
	ErrStep
	// ErrValidation indicates an input validation error
	ErrValidation
	// ErrTimeout indicates a timeout occurred
	ErrTimeout
	// ErrWebhook indicates a webhook delivery error
	ErrWebhook
)

// Process exit codes reported by the phaser binary.
const (
	// ExitSuccess means the run completed, or the trigger did not match.
	ExitSuccess = 0
	// ExitConfigError means configuration, pipeline or toolchain problems.
	ExitConfigError = 1
	// ExitStepFailure means at least one step exited non-zero.
	ExitStepFailure = 2
	// ExitTimeout means a job or step hit its deadline.
	ExitTimeout = 101
)

// PhaserError is the base error type for all phaser errors
type PhaserError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *PhaserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *PhaserError) Unwrap() error {
	return e.Cause
}

// New creates a new PhaserError
func New(errType ErrorType, message string, cause error) *PhaserError {
	return &PhaserError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *PhaserError) WithContext(key string, value interface{}) *PhaserError {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var perr *PhaserError
	if err == nil {
		return false
	}
	if errors.As(err, &perr) {
		return perr.Type == errType
	}
	return false
}

// ExitCode maps an error to the process exit code the binary should
// terminate with. A nil error maps to ExitSuccess.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var perr *PhaserError
	if !errors.As(err, &perr) {
		return ExitConfigError
	}

	switch perr.Type {
	case ErrTimeout:
		return ExitTimeout
	case ErrStep:
		return ExitStepFailure
	default:
		return ExitConfigError
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrPipeline:
		return "PIPELINE"
	case ErrTrigger:
		return "TRIGGER"
	case ErrToolchain:
		return "TOOLCHAIN"
	case ErrStep:
		return "STEP"
	case ErrValidation:
		return "VALIDATION"
	case ErrTimeout:
		return "TIMEOUT"
	case ErrWebhook:
		return "WEBHOOK"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *PhaserError {
	return New(ErrConfig, message, cause)
}

// PipelineError creates a pipeline load/parse error
func PipelineError(message string, cause error) *PhaserError {
	return New(ErrPipeline, message, cause)
}

// TriggerError creates a trigger definition error
func TriggerError(message string, cause error) *PhaserError {
	return New(ErrTrigger, message, cause)
}

// ToolchainError creates a toolchain error
func ToolchainError(message string, cause error) *PhaserError {
	return New(ErrToolchain, message, cause)
}

// StepError creates a step execution error
func StepError(message string, cause error) *PhaserError {
	return New(ErrStep, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *PhaserError {
	return New(ErrValidation, message, cause)
}

// TimeoutError creates a timeout error
func TimeoutError(message string, cause error) *PhaserError {
	return New(ErrTimeout, message, cause)
}

// WebhookError creates a webhook delivery error
func WebhookError(message string, cause error) *PhaserError {
	return New(ErrWebhook, message, cause)
}
