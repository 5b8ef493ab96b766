// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
)

// SQLiteGateway executes queries against a SQLite database file using the
// pure-Go driver. BIRD benchmark databases ship as SQLite files, so this is
// the default gateway.
type SQLiteGateway struct {
	db      *sql.DB
	name    string
	timeout time.Duration
	samples int

	// mu guards the cached introspection result.
	mu     sync.RWMutex
	schema *schema.Schema
}

// OpenSQLite opens a read-only gateway over the database file at path.
func OpenSQLite(ctx context.Context, path string, opts Options) (*SQLiteGateway, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.Wrap(apperrors.Connection, fmt.Sprintf("database file %s not found", path), err)
	}
	db, err := sql.Open("sqlite", sqliteConnString(path))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Connection, fmt.Sprintf("open %s", path), err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.Connection, fmt.Sprintf("cannot read %s", path), err)
	}
	base := filepath.Base(path)
	return &SQLiteGateway{
		db:      db,
		name:    strings.TrimSuffix(base, filepath.Ext(base)),
		timeout: opts.Timeout,
		samples: opts.SampleValues,
	}, nil
}

// sqliteConnString builds the driver DSN. The benchmark never writes, so the
// file is opened read-only with a busy timeout for concurrent workers.
func sqliteConnString(path string) string {
	return "file:" + path + "?mode=ro&_pragma=busy_timeout(10000)"
}

// Query runs one read-only statement and captures the result or the
// classified failure.
func (g *SQLiteGateway) Query(ctx context.Context, sqlText string) Outcome {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	rows, err := g.db.QueryContext(ctx, sqlText)
	if err != nil {
		return classifySQLite(ctx, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return classifySQLite(ctx, err)
	}

	out := Outcome{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return classifySQLite(ctx, err)
		}
		for i, v := range vals {
			vals[i] = normalizeSQLiteValue(v)
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return classifySQLite(ctx, err)
	}
	return out
}

// Inspect introspects the database structure. The result is cached; the
// files are static benchmark artifacts, so the structure cannot change
// underneath a run.
func (g *SQLiteGateway) Inspect(ctx context.Context) (*schema.Schema, error) {
	g.mu.RLock()
	if g.schema != nil {
		cached := g.schema
		g.mu.RUnlock()
		return cached, nil
	}
	g.mu.RUnlock()

	s := &schema.Schema{Name: g.name}

	// sqlite_master scans in creation order, which is the declaration order
	// the serializer must preserve.
	rows, err := g.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("list tables of %s", g.name), err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, apperrors.Wrap(apperrors.SchemaLoad, "scan table name", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, apperrors.Wrap(apperrors.SchemaLoad, "list tables", err)
	}
	rows.Close()

	if len(names) == 0 {
		return nil, apperrors.New(apperrors.SchemaLoad, fmt.Sprintf("database %s has no tables", g.name))
	}

	for _, name := range names {
		table, err := g.inspectTable(ctx, name)
		if err != nil {
			return nil, err
		}
		s.Tables = append(s.Tables, *table)
	}

	g.mu.Lock()
	g.schema = s
	g.mu.Unlock()
	return s, nil
}

// Close releases the underlying connection pool.
func (g *SQLiteGateway) Close() {
	_ = g.db.Close()
}

func (g *SQLiteGateway) inspectTable(ctx context.Context, name string) (*schema.Table, error) {
	table := &schema.Table{Name: name}

	cols, err := g.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("columns of %s", name), err)
	}
	for cols.Next() {
		var (
			cid     int
			colName string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := cols.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			cols.Close()
			return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("columns of %s", name), err)
		}
		table.Columns = append(table.Columns, schema.Column{
			Name:       colName,
			Type:       strings.ToUpper(colType),
			NotNull:    notNull != 0,
			PrimaryKey: pk > 0,
		})
	}
	if err := cols.Err(); err != nil {
		cols.Close()
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("columns of %s", name), err)
	}
	cols.Close()

	fks, err := g.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(name)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("foreign keys of %s", name), err)
	}
	for fks.Next() {
		var (
			id, seq            int
			refTable, from     string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := fks.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			fks.Close()
			return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("foreign keys of %s", name), err)
		}
		table.ForeignKeys = append(table.ForeignKeys, schema.ForeignKey{
			Column:    from,
			RefTable:  refTable,
			RefColumn: to.String,
		})
	}
	if err := fks.Err(); err != nil {
		fks.Close()
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("foreign keys of %s", name), err)
	}
	fks.Close()

	if g.samples > 0 {
		for i := range table.Columns {
			table.Columns[i].Samples = g.sampleColumn(ctx, name, table.Columns[i].Name)
		}
	}
	return table, nil
}

// sampleColumn gathers up to the configured number of distinct values.
// Failures are tolerated; samples are prompt garnish, not structure.
func (g *SQLiteGateway) sampleColumn(ctx context.Context, table, column string) []string {
	q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT %d",
		quoteIdent(column), quoteIdent(table), quoteIdent(column), g.samples)
	rows, err := g.db.QueryContext(ctx, q)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var samples []string
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return samples
		}
		samples = append(samples, renderSample(normalizeSQLiteValue(v)))
	}
	return samples
}

// classifySQLite folds a driver error into an outcome. SQLite reports
// unknown identifiers and malformed statements through its message text, so
// classification matches on the known fragments.
func classifySQLite(ctx context.Context, err error) Outcome {
	msg := err.Error()
	if timedOut(ctx, err) || strings.Contains(strings.ToLower(msg), "interrupted") {
		return Failure(ErrorTimeout, msg)
	}
	lower := strings.ToLower(msg)
	for _, marker := range sqliteSyntaxMarkers {
		if strings.Contains(lower, marker) {
			return Failure(ErrorSyntax, msg)
		}
	}
	return Failure(ErrorRuntime, msg)
}

var sqliteSyntaxMarkers = []string{
	"syntax error",
	"no such table",
	"no such column",
	"no such function",
	"unrecognized token",
	"incomplete input",
	"ambiguous column name",
	"wrong number of arguments",
}

// normalizeSQLiteValue maps driver values onto the small set of types the
// evaluator and the report serializer understand.
func normalizeSQLiteValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// renderSample formats one sampled value for prompt text. Long strings are
// truncated so a single wide value cannot blow up the prompt.
func renderSample(v any) string {
	const maxLen = 40
	switch s := v.(type) {
	case string:
		if len(s) > maxLen {
			s = s[:maxLen] + "..."
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// quoteIdent double-quotes an identifier for embedding in introspection
// statements. PRAGMA arguments cannot be bound as parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
