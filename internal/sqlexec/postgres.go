// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
)

// PostgresGateway executes queries against a PostgreSQL database through a
// pgx connection pool. Used when the benchmark target is the PostgreSQL
// flavor of the dataset or an ad-hoc server.
type PostgresGateway struct {
	pool    *pgxpool.Pool
	name    string
	timeout time.Duration
	samples int

	mu     sync.RWMutex
	schema *schema.Schema
}

// OpenPostgres connects a gateway to the given DSN and verifies the server
// is reachable before returning.
func OpenPostgres(ctx context.Context, connString string, opts Options) (*PostgresGateway, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Connection, "create connection pool", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(apperrors.Connection, "database unreachable", err)
	}

	return &PostgresGateway{
		pool:    pool,
		name:    pool.Config().ConnConfig.Database,
		timeout: opts.Timeout,
		samples: opts.SampleValues,
	}, nil
}

// Query runs one read-only statement and captures the result or the
// classified failure.
func (g *PostgresGateway) Query(ctx context.Context, sqlText string) Outcome {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return classifyPostgres(ctx, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sqlText)
	if err != nil {
		return classifyPostgres(ctx, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = string(fd.Name)
	}

	out := Outcome{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return classifyPostgres(ctx, err)
		}
		for i, v := range vals {
			vals[i] = normalizePostgresValue(v)
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return classifyPostgres(ctx, err)
	}
	return out
}

// Inspect introspects the public schema. The result is cached for the
// lifetime of the gateway.
func (g *PostgresGateway) Inspect(ctx context.Context) (*schema.Schema, error) {
	g.mu.RLock()
	if g.schema != nil {
		cached := g.schema
		g.mu.RUnlock()
		return cached, nil
	}
	g.mu.RUnlock()

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, "acquire connection", err)
	}
	defer conn.Release()

	s := &schema.Schema{Name: g.name}

	// information_schema has no notion of declaration order for tables, so
	// name order stands in as the stable ordering.
	tableRows, err := conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("list tables of %s", g.name), err)
	}
	var names []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			tableRows.Close()
			return nil, apperrors.Wrap(apperrors.SchemaLoad, "scan table name", err)
		}
		names = append(names, name)
	}
	if err := tableRows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, "list tables", err)
	}

	if len(names) == 0 {
		return nil, apperrors.New(apperrors.SchemaLoad, fmt.Sprintf("database %s has no tables", g.name))
	}

	for _, name := range names {
		table, err := g.inspectTable(ctx, conn, name)
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
func (g *PostgresGateway) Close() {
	g.pool.Close()
}

func (g *PostgresGateway) inspectTable(ctx context.Context, conn *pgxpool.Conn, name string) (*schema.Table, error) {
	table := &schema.Table{Name: name}

	pks, err := g.primaryKeyColumns(ctx, conn, name)
	if err != nil {
		return nil, err
	}

	colRows, err := conn.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("columns of %s", name), err)
	}
	for colRows.Next() {
		var colName, dataType, isNullable string
		if err := colRows.Scan(&colName, &dataType, &isNullable); err != nil {
			colRows.Close()
			return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("columns of %s", name), err)
		}
		table.Columns = append(table.Columns, schema.Column{
			Name:       colName,
			Type:       strings.ToUpper(dataType),
			NotNull:    isNullable == "NO",
			PrimaryKey: pks[colName],
		})
	}
	if err := colRows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("columns of %s", name), err)
	}

	fkRows, err := conn.Query(ctx, `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public' AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`, name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("foreign keys of %s", name), err)
	}
	for fkRows.Next() {
		var col, refTable, refCol string
		if err := fkRows.Scan(&col, &refTable, &refCol); err != nil {
			fkRows.Close()
			return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("foreign keys of %s", name), err)
		}
		table.ForeignKeys = append(table.ForeignKeys, schema.ForeignKey{
			Column:    col,
			RefTable:  refTable,
			RefColumn: refCol,
		})
	}
	if err := fkRows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("foreign keys of %s", name), err)
	}

	if g.samples > 0 {
		for i := range table.Columns {
			table.Columns[i].Samples = g.sampleColumn(ctx, conn, name, table.Columns[i].Name)
		}
	}
	return table, nil
}

func (g *PostgresGateway) primaryKeyColumns(ctx context.Context, conn *pgxpool.Conn, name string) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = 'public' AND tc.table_name = $1 AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position`, name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("primary keys of %s", name), err)
	}
	defer rows.Close()

	pks := make(map[string]bool)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, apperrors.Wrap(apperrors.SchemaLoad, fmt.Sprintf("primary keys of %s", name), err)
		}
		pks[col] = true
	}
	return pks, rows.Err()
}

func (g *PostgresGateway) sampleColumn(ctx context.Context, conn *pgxpool.Conn, table, column string) []string {
	q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT %d",
		quoteIdent(column), quoteIdent(table), quoteIdent(column), g.samples)
	rows, err := conn.Query(ctx, q)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var samples []string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil || len(vals) == 0 {
			return samples
		}
		samples = append(samples, renderSample(normalizePostgresValue(vals[0])))
	}
	return samples
}

// classifyPostgres folds a pgx error into an outcome using the SQLSTATE
// class: 42xxx covers undefined tables/columns and malformed statements,
// 57014 is the server-side cancellation raised when the deadline fires.
func classifyPostgres(ctx context.Context, err error) Outcome {
	msg := err.Error()
	if timedOut(ctx, err) {
		return Failure(ErrorTimeout, msg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "57014":
			return Failure(ErrorTimeout, msg)
		case strings.HasPrefix(pgErr.Code, "42"):
			return Failure(ErrorSyntax, msg)
		}
	}
	return Failure(ErrorRuntime, msg)
}

// normalizePostgresValue maps pgx values onto the types the evaluator and
// report serializer understand. UUIDs arrive as raw byte arrays and are
// rendered in canonical form.
func normalizePostgresValue(v any) any {
	switch b := v.(type) {
	case [16]byte:
		return formatUUID(b[:])
	case []byte:
		if len(b) == 16 {
			return formatUUID(b)
		}
		return string(b)
	case time.Time:
		return b.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

func formatUUID(b []byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}
