// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn resolves database target strings into typed destinations.
// A target is either a SQLite file path (with or without a sqlite: prefix)
// or a PostgreSQL connection string; MySQL targets are recognized but not
// yet supported.
package dsn

import (
	"strings"
)

// DetectDBType detects the database type from a target string.
// Strings without a URL scheme are treated as SQLite file paths.
func DetectDBType(target string) DBType {
	lower := strings.ToLower(target)

	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DBTypePostgreSQL
	}
	if strings.HasPrefix(lower, "mysql://") {
		return DBTypeMySQL
	}
	if strings.HasPrefix(lower, "sqlite://") || strings.HasPrefix(lower, "sqlite:") {
		return DBTypeSQLite
	}
	if strings.Contains(target, "://") {
		return DBTypeUnknown
	}
	if target == "" {
		return DBTypeUnknown
	}
	// Bare strings are file paths.
	return DBTypeSQLite
}

// Resolve parses a target string and returns a typed destination.
// This is the main entry point for target resolution.
func Resolve(target string) (*Target, error) {
	if target == "" {
		return nil, NewParseError(target, "empty target", "pass a SQLite file path or a postgres:// connection string")
	}

	switch DetectDBType(target) {
	case DBTypeSQLite:
		return resolveSQLitePath(target)
	case DBTypePostgreSQL:
		resolver := NewPostgreSQLResolver()
		info, err := resolver.Parse(target)
		if err != nil {
			return nil, err
		}
		normalized, err := resolver.Normalize(info)
		if err != nil {
			return nil, err
		}
		return &Target{Type: DBTypePostgreSQL, DSN: normalized, Name: info.Database}, nil
	case DBTypeMySQL:
		return nil, NewParseError(target, "MySQL support not yet implemented", "use a SQLite file or PostgreSQL for now")
	default:
		return nil, NewParseError(target, "unknown database type", "use a SQLite file path or postgres://")
	}
}

// Parse parses a PostgreSQL DSN string and returns the normalized
// connection string. Kept for callers that only deal with DSNs, such as
// the connect command.
func Parse(dsn string) (string, error) {
	t, err := Resolve(dsn)
	if err != nil {
		return "", err
	}
	if t.Type != DBTypePostgreSQL {
		return "", NewParseError(dsn, "not a PostgreSQL DSN", "use postgres:// or postgresql://")
	}
	return t.DSN, nil
}

// Validate validates a PostgreSQL DSN string without normalizing it
func Validate(dsn string) error {
	if dsn == "" {
		return NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	if DetectDBType(dsn) != DBTypePostgreSQL {
		return NewParseError(dsn, "not a PostgreSQL DSN", "use postgres:// or postgresql://")
	}
	return NewPostgreSQLResolver().Validate(dsn)
}

// ParseInfo parses a PostgreSQL DSN string and returns detailed DSN info.
// Useful for inspecting connection details.
func ParseInfo(dsn string) (*DSNInfo, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	if DetectDBType(dsn) != DBTypePostgreSQL {
		return nil, NewParseError(dsn, "not a PostgreSQL DSN", "use postgres:// or postgresql://")
	}
	return NewPostgreSQLResolver().Parse(dsn)
}
