// Package corelogerr implements the chained error type used throughout
// ssw-corelog (spec.md §7). It is adapted from the teacher's
// pkg/errors.AppError, narrowed to the seven error kinds spec.md names
// and given an Unwrap method so the chain interoperates with the
// standard errors.Is/errors.As.
package corelogerr

import (
	"fmt"
	"time"
)

// Code identifies one of the error kinds named in spec.md §7.
type Code string

const (
	CodeIllegalState       Code = "illegal-state"
	CodeConfig             Code = "config"
	CodeRetriesExhausted   Code = "retries-exhausted"
	CodeProtocolMismatch   Code = "protocol-mismatch"
	CodePlatformCallFailed Code = "platform-call-failed"
	CodeAssertionFailed    Code = "assertion-failed"
	CodeTooManyErrors      Code = "too-many-errors"
)

// Severity is advisory; it does not change control flow, only how the
// handler's own diagnostics logger renders the error.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// MaxErrorDepth bounds the chain length per spec.md §4.4.4. A chain
// exceeding this depth forces the Internal Handler to abort its loop
// with CodeTooManyErrors.
const MaxErrorDepth = 5

// CoreError is the chained error value used everywhere in this module.
type CoreError struct {
	Code      Code
	Component string
	Operation string
	Message   string
	Severity  Severity
	Timestamp time.Time
	cause     error
}

// New creates a leaf CoreError with no cause.
func New(code Code, component, operation, message string) *CoreError {
	return &CoreError{
		Code:      code,
		Component: component,
		Operation: operation,
		Message:   message,
		Severity:  SeverityWarning,
		Timestamp: time.Now(),
	}
}

// Wrap creates a CoreError whose cause is err, chaining depth by one.
func Wrap(code Code, component, operation, message string, cause error) *CoreError {
	e := New(code, component, operation, message)
	e.cause = cause
	return e
}

func (e *CoreError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Component, e.Operation, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/errors.As.
func (e *CoreError) Unwrap() error {
	return e.cause
}

// Depth walks the cause chain and counts CoreError links, including e
// itself. Non-CoreError causes terminate the count without contributing
// further depth.
func (e *CoreError) Depth() int {
	depth := 0
	var cur error = e
	for cur != nil {
		ce, ok := cur.(*CoreError)
		if !ok {
			break
		}
		depth++
		cur = ce.cause
	}
	return depth
}

// TooManyErrors reports whether e's chain has exceeded MaxErrorDepth.
func (e *CoreError) TooManyErrors() bool {
	return e.Depth() > MaxErrorDepth
}
