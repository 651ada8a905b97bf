// Package interp provides error handling for the JDL evaluator.
package interp

import (
	"fmt"
)

// ErrorKind classifies a runtime error. The kind is the user-visible error
// class printed ahead of the message in failure reports.
type ErrorKind string

const (
	// ErrSyntax covers wrong built-in arity, malformed switch cases,
	// unknown instruction tags, and loop-control signals escaping all loops.
	ErrSyntax ErrorKind = "SyntaxError"

	// ErrName is raised when a name is not bound anywhere in the scope chain.
	ErrName ErrorKind = "NameError"

	// ErrType is raised for invalid type tags and values unusable in the
	// requested operation.
	ErrType ErrorKind = "TypeError"

	// ErrScope is raised when export is attempted with no parent scope.
	ErrScope ErrorKind = "ScopeError"

	// ErrValue is raised for invalid exit arity and failed conversions.
	ErrValue ErrorKind = "ValueError"

	// ErrZeroDivision is raised for division or modulo by zero.
	ErrZeroDivision ErrorKind = "ZeroDivisionError"

	// ErrIndex is raised for out-of-range sequence and string indexing.
	ErrIndex ErrorKind = "IndexError"

	// ErrKey is raised for missing mapping keys.
	ErrKey ErrorKind = "KeyError"
)

// RuntimeError is an evaluation failure. Trace carries the rendered call
// stack as accumulated at the failure point; it is attached by the evaluator
// when the error first unwinds out of an instruction.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Trace   string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Report renders the full failure report: error class, message, and the call
// stack trace captured when the error was raised.
func (e *RuntimeError) Report() string {
	if e.Trace == "" {
		return e.Error()
	}
	return e.Error() + "\n" + e.Trace
}

// errf creates a RuntimeError with a formatted message.
func errf(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
