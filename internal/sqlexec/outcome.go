package sqlexec

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed execution for the refinement policy.
type ErrorKind string

const (
	// ErrorSyntax covers statically invalid SQL: parse errors and unknown
	// tables, columns, or functions. These are the errors the refiner is
	// most likely to fix.
	ErrorSyntax ErrorKind = "syntax"
	// ErrorRuntime covers failures of otherwise well-formed SQL, such as
	// type mismatches or constraint violations.
	ErrorRuntime ErrorKind = "runtime"
	// ErrorTimeout marks a query that exceeded the configured bound.
	// Kept distinct from runtime because rewriting rarely fixes it.
	ErrorTimeout ErrorKind = "timeout"
)

// ExecError carries the engine's error message verbatim. The refiner embeds
// the message in its repair prompt, so it is never rewritten or summarized.
type ExecError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Outcome is the result of executing one SQL statement: either rows or a
// classified error, never both. Failures are carried in-band so they can
// drive the refinement loop instead of unwinding it.
type Outcome struct {
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]any    `json:"rows,omitempty"`
	Err     *ExecError `json:"error,omitempty"`
}

// OK reports whether the execution succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Failure builds an error outcome.
func Failure(kind ErrorKind, message string) Outcome {
	return Outcome{Err: &ExecError{Kind: kind, Message: message}}
}

// timedOut reports whether err (or the context it ran under) is a deadline
// expiry. Engines surface cancellation in driver-specific ways, so the
// context is checked as well.
func timedOut(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}
