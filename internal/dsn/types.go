// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import "fmt"

// DBType represents the type of database
type DBType string

const (
	DBTypeSQLite     DBType = "sqlite"
	DBTypePostgreSQL DBType = "postgresql"
	DBTypeMySQL      DBType = "mysql"
	DBTypeUnknown    DBType = "unknown"
)

// Target is a resolved database destination the execution gateway can open.
// Exactly one of Path or DSN is set depending on Type.
type Target struct {
	Type DBType
	// Path is the filesystem path for SQLite targets.
	Path string
	// DSN is the normalized connection string for PostgreSQL targets.
	DSN string
	// Name is the short database identifier: the file base name without
	// extension for SQLite, the database name for PostgreSQL.
	Name string
}

// String returns a display form of the target. The PostgreSQL form may
// contain credentials; mask it before logging.
func (t *Target) String() string {
	if t.Type == DBTypeSQLite {
		return t.Path
	}
	return t.DSN
}

// DSNInfo contains parsed information from a DSN string
type DSNInfo struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// String returns the normalized DSN string
func (d *DSNInfo) String() string {
	return d.Original
}

// Resolver is an interface for database-specific DSN resolution
type Resolver interface {
	// Parse parses a DSN string and returns normalized DSN info
	Parse(dsn string) (*DSNInfo, error)

	// Normalize converts DSN info to a properly formatted connection string
	Normalize(info *DSNInfo) (string, error)

	// Validate checks if the DSN is valid for the database type
	Validate(dsn string) error
}

// ParseError represents an error that occurred during DSN parsing
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid database target: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid database target: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{
		DSN:    dsn,
		Reason: reason,
		Hint:   hint,
	}
}
