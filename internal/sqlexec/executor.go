// Package sqlexec executes SQL against live databases for the agent loop.
// It provides one gateway per supported engine (SQLite files and PostgreSQL
// servers) with a shared contract: queries are read-only, every execution
// failure is captured as a classified in-band outcome rather than an error
// return, and the engine's message is preserved verbatim for the repair
// prompt. Gateways also introspect database structure into the schema model,
// including optional per-column sample values.
package sqlexec

import (
	"context"
	"fmt"
	"time"

	"github.com/abdoukaba/Autogen-BIRD/internal/dsn"
	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
)

// Options configures a gateway.
type Options struct {
	// Timeout bounds each query. Zero leaves queries unbounded.
	Timeout time.Duration
	// SampleValues is the number of example values gathered per column
	// during introspection. Zero disables sampling.
	SampleValues int
}

// Gateway executes read-only SQL against one database and introspects its
// structure. Query never returns a Go error: any failure, including a
// timeout, is folded into the Outcome so the caller can feed it back to the
// refiner. Inspect fails when the database is unreachable or has no tables.
type Gateway interface {
	Query(ctx context.Context, sql string) Outcome
	Inspect(ctx context.Context) (*schema.Schema, error)
	Close()
}

// Open resolves a target string (SQLite file path or PostgreSQL DSN) and
// opens the matching gateway.
func Open(ctx context.Context, target string, opts Options) (Gateway, error) {
	t, err := dsn.Resolve(target)
	if err != nil {
		return nil, err
	}
	return OpenTarget(ctx, t, opts)
}

// OpenTarget opens a gateway for an already resolved target.
func OpenTarget(ctx context.Context, t *dsn.Target, opts Options) (Gateway, error) {
	switch t.Type {
	case dsn.DBTypeSQLite:
		return OpenSQLite(ctx, t.Path, opts)
	case dsn.DBTypePostgreSQL:
		return OpenPostgres(ctx, t.DSN, opts)
	default:
		return nil, apperrors.New(apperrors.Connection, fmt.Sprintf("unsupported database type %q", t.Type))
	}
}
