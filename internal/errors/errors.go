// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. This enables better error categorization, logging,
// and user experience by providing context-aware error information.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import "fmt"

// Kind is a machine-readable error category.
type Kind string

const (
	// SchemaLoad indicates the database structure could not be introspected
	// (unreachable database or a database with zero tables).
	SchemaLoad Kind = "schema_load"
	// InvalidPrune indicates a schema prune referenced a table or column
	// that does not exist in the full schema. Fatal to one question only.
	InvalidPrune Kind = "invalid_prune"
	// Provider indicates a language-model provider call failed.
	Provider Kind = "provider"
	// Config indicates the agent configuration could not be read or is invalid.
	Config Kind = "config"
	// Dataset indicates a benchmark dataset could not be located or parsed.
	Dataset Kind = "dataset"
	// Keychain indicates an OS keychain operation failed.
	Keychain Kind = "keychain"
	// Connection indicates a database target could not be reached.
	Connection Kind = "connection"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// HasKind reports whether err is an *E carrying the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*E); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
