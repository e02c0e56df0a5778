// Package errors provides standardized error messaging for the Orizon IR toolchain
package errors

import (
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryArtifact   ErrorCategory = "ARTIFACT"
	CategoryClone      ErrorCategory = "CLONE"
	CategoryArity      ErrorCategory = "ARITY"
	CategoryValidation ErrorCategory = "VALIDATION"
	CategorySystem     ErrorCategory = "SYSTEM"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
	Cause    error
}

// Error implements the error interface
func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v (caller: %s)", e.Category, e.Code, e.Message, e.Cause, e.Caller)
	}
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// Unwrap exposes the underlying cause to errors.Is/As
func (e *StandardError) Unwrap() error { return e.Cause }

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return newStandardError(2, category, code, message, context)
}

func newStandardError(skip int, category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(skip)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// Common error constructors

// InvalidArtifact reports a persisted IR stream that cannot be trusted.
// Callers discard the artifact and recompile from source.
func InvalidArtifact(path string, cause error) *StandardError {
	e := newStandardError(2, CategoryArtifact, "INVALID_ARTIFACT",
		fmt.Sprintf("Invalid IR artifact %q", path),
		map[string]interface{}{"path": path})
	e.Cause = cause
	return e
}

// UnsupportedClone is raised when an instruction or operand receives a clone
// context variant it has no handler for.
func UnsupportedClone(subject string, info interface{}) *StandardError {
	return newStandardError(2, CategoryClone, "UNSUPPORTED_CLONE_INFO",
		fmt.Sprintf("%s cannot be cloned with %T", subject, info),
		map[string]interface{}{"subject": subject})
}

// MissingRename is raised when a variable has no entry in the active rename map.
func MissingRename(variable string) *StandardError {
	return newStandardError(2, CategoryClone, "MISSING_RENAME",
		fmt.Sprintf("Variable %s has no rename in clone context", variable),
		map[string]interface{}{"variable": variable})
}

// ArityMismatch is raised when a decoded instruction disagrees with its declared shape.
func ArityMismatch(op string, want, got int) *StandardError {
	return newStandardError(2, CategoryArity, "ARITY_MISMATCH",
		fmt.Sprintf("Operation %s declares %d operands, decoded %d", op, want, got),
		map[string]interface{}{"operation": op, "want": want, "got": got})
}

// InvalidRename reports a rename that would merge two variables.
func InvalidRename(details string) *StandardError {
	return newStandardError(2, CategoryValidation, "INVALID_RENAME",
		fmt.Sprintf("Invalid rename: %s", details),
		map[string]interface{}{"details": details})
}

// CallSiteNotFound reports an inlining request for a call that is not in the host scope.
func CallSiteNotFound(call, scope string) *StandardError {
	return newStandardError(2, CategoryValidation, "CALL_SITE_NOT_FOUND",
		fmt.Sprintf("Call %s not found in scope %s", call, scope),
		map[string]interface{}{"call": call, "scope": scope})
}
