// Package pferrors provides the structured error taxonomy used by the
// pipeline orchestrator and its CLI front end.
package pferrors

import (
	"errors"
	"fmt"
)

// Category classifies a pipeline error for CLI exit-code mapping and logging.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryDAG        Category = "dag"
	CategoryFingerprint Category = "fingerprint"
	CategoryCache      Category = "cache"
	CategoryDependency Category = "dependency"
	CategoryTask       Category = "task"
	CategoryGate       Category = "gate"
	CategoryResource   Category = "resource"
)

// Code is a stable machine-readable identifier, one per spec §7 taxonomy entry.
type Code string

const (
	CodeConfigMissing          Code = "ConfigMissing"
	CodeConfigInvalid          Code = "ConfigInvalid"
	CodeExtendsCycle           Code = "ExtendsCycle"
	CodeDuplicateStepID        Code = "DuplicateStepId"
	CodeUnknownDependency      Code = "UnknownDependency"
	CodeForwardOrSelfDependency Code = "ForwardOrSelfDependency"
	CodeDependencyFailed       Code = "DependencyFailed"
	CodeAuditGateTripped       Code = "AuditGateTripped"
	CodeVerifyPolicyTripped    Code = "VerifyPolicyTripped"
	CodePathEscape             Code = "PathEscape"
	CodeStateTooLarge          Code = "StateTooLarge"
	CodeTaskFailed             Code = "TaskFailed"
)

// PipelineError is the structured error type returned from every orchestrator
// component. It carries enough context for the CLI to pick an exit code and
// render a consistent failure envelope without re-deriving it from a message
// string.
type PipelineError struct {
	Category Category
	Code     Code
	Message  string
	Cause    error
	Context  map[string]any
}

// New creates a PipelineError with no wrapped cause.
func New(category Category, code Code, message string) *PipelineError {
	return &PipelineError{Category: category, Code: code, Message: message}
}

// Wrap creates a PipelineError that wraps an existing error.
func Wrap(err error, category Category, code Code, message string) *PipelineError {
	return &PipelineError{Category: category, Code: code, Message: message, Cause: err}
}

// WithContext attaches a structured context field and returns the receiver
// for chaining.
func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// As extracts a *PipelineError from any error via errors.As semantics,
// without requiring callers to import the errors package for this common case.
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	ok := errors.As(err, &pe)
	return pe, ok
}

// ExitCode maps the error to the CLI exit code contract from spec §6:
// 0 success, 1 pipeline failure, 2 usage error. Configuration errors that
// amount to invalid/missing input map to usage errors; everything else that
// reaches the top level is a pipeline failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	pe, ok := As(err)
	if !ok {
		return 1
	}
	switch pe.Code {
	case CodeConfigMissing, CodeConfigInvalid, CodeExtendsCycle:
		return 2
	default:
		return 1
	}
}
