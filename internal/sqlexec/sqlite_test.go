// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
)

// createTestDB builds a throwaway SQLite file and runs the given statements
// against it read-write, so the gateway under test can open it read-only.
func createTestDB(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schools.sqlite")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open setup connection: %v", err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup statement %q: %v", stmt, err)
		}
	}
	return path
}

func openTestGateway(t *testing.T, opts Options, stmts ...string) *SQLiteGateway {
	t.Helper()
	path := createTestDB(t, stmts...)
	g, err := OpenSQLite(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "/nonexistent/schools.sqlite", Options{})
	if err == nil {
		t.Fatal("OpenSQLite() expected error for missing file")
	}
	if !apperrors.HasKind(err, apperrors.Connection) {
		t.Errorf("OpenSQLite() error kind = %v, want connection", err)
	}
}

func TestSQLiteGateway_Query(t *testing.T) {
	g := openTestGateway(t, Options{},
		`CREATE TABLE schools (id INTEGER PRIMARY KEY, name TEXT NOT NULL, seats INTEGER)`,
		`INSERT INTO schools VALUES (1, 'Alameda High', 1200), (2, 'Burbank Middle', 640)`,
	)

	out := g.Query(context.Background(), "SELECT name, seats FROM schools ORDER BY name")
	if !out.OK() {
		t.Fatalf("Query() error = %v, want success", out.Err)
	}
	if !reflect.DeepEqual(out.Columns, []string{"name", "seats"}) {
		t.Errorf("Query() columns = %v, want [name seats]", out.Columns)
	}
	want := [][]any{
		{"Alameda High", int64(1200)},
		{"Burbank Middle", int64(640)},
	}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Errorf("Query() rows = %v, want %v", out.Rows, want)
	}
}

func TestSQLiteGateway_QueryErrors(t *testing.T) {
	g := openTestGateway(t, Options{},
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
	)

	tests := []struct {
		name     string
		sql      string
		wantKind ErrorKind
		contains string
	}{
		{
			name:     "misspelled table",
			sql:      "SELECT * FROM usres",
			wantKind: ErrorSyntax,
			contains: "no such table",
		},
		{
			name:     "unknown column",
			sql:      "SELECT nme FROM users",
			wantKind: ErrorSyntax,
			contains: "no such column",
		},
		{
			name:     "malformed statement",
			sql:      "SELCT id FROM users",
			wantKind: ErrorSyntax,
			contains: "syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := g.Query(context.Background(), tt.sql)
			if out.OK() {
				t.Fatal("Query() succeeded, want classified error")
			}
			if out.Err.Kind != tt.wantKind {
				t.Errorf("Query() error kind = %v, want %v", out.Err.Kind, tt.wantKind)
			}
			if !strings.Contains(out.Err.Message, tt.contains) {
				t.Errorf("Query() error message = %q, want substring %q", out.Err.Message, tt.contains)
			}
			if out.Rows != nil || out.Columns != nil {
				t.Errorf("Query() failure carried partial rows: %v", out)
			}
		})
	}
}

func TestSQLiteGateway_QueryTimeout(t *testing.T) {
	g := openTestGateway(t, Options{Timeout: 10 * time.Millisecond},
		`CREATE TABLE t (x INTEGER)`,
	)

	out := g.Query(context.Background(),
		"WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM c WHERE x < 100000000) SELECT count(*) FROM c")
	if out.OK() {
		t.Fatal("Query() succeeded, want timeout")
	}
	if out.Err.Kind != ErrorTimeout {
		t.Errorf("Query() error kind = %v, want %v", out.Err.Kind, ErrorTimeout)
	}
}

func TestSQLiteGateway_Inspect(t *testing.T) {
	// staff is created before access_log so it must come back first even
	// though it sorts after it alphabetically.
	g := openTestGateway(t, Options{},
		`CREATE TABLE staff (id INTEGER PRIMARY KEY, full_name TEXT NOT NULL, salary REAL)`,
		`CREATE TABLE access_log (id INTEGER PRIMARY KEY, staff_id INTEGER REFERENCES staff(id), door TEXT)`,
	)

	s, err := g.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if s.Name != "schools" {
		t.Errorf("Inspect() schema name = %q, want %q", s.Name, "schools")
	}
	if len(s.Tables) != 2 || s.Tables[0].Name != "staff" || s.Tables[1].Name != "access_log" {
		t.Fatalf("Inspect() table order = %v, want [staff access_log]", tableNames(s.Tables))
	}

	staff := s.Tables[0]
	wantCols := []string{"id", "full_name", "salary"}
	for i, want := range wantCols {
		if staff.Columns[i].Name != want {
			t.Errorf("staff column %d = %q, want %q", i, staff.Columns[i].Name, want)
		}
	}
	if !staff.Columns[0].PrimaryKey {
		t.Error("staff.id should be flagged as primary key")
	}
	if !staff.Columns[1].NotNull {
		t.Error("staff.full_name should be flagged NOT NULL")
	}
	if staff.Columns[2].Type != "REAL" {
		t.Errorf("staff.salary type = %q, want REAL", staff.Columns[2].Type)
	}

	log := s.Tables[1]
	if len(log.ForeignKeys) != 1 {
		t.Fatalf("access_log foreign keys = %d, want 1", len(log.ForeignKeys))
	}
	fk := log.ForeignKeys[0]
	if fk.Column != "staff_id" || fk.RefTable != "staff" || fk.RefColumn != "id" {
		t.Errorf("access_log foreign key = %+v, want staff_id -> staff.id", fk)
	}
}

func TestSQLiteGateway_InspectCached(t *testing.T) {
	g := openTestGateway(t, Options{},
		`CREATE TABLE t (id INTEGER PRIMARY KEY)`,
	)

	first, err := g.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	second, err := g.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() second call error = %v", err)
	}
	if first != second {
		t.Error("Inspect() should return the cached schema on repeat calls")
	}
}

func TestSQLiteGateway_InspectEmptyDatabase(t *testing.T) {
	g := openTestGateway(t, Options{}, `PRAGMA user_version = 1`)

	_, err := g.Inspect(context.Background())
	if err == nil {
		t.Fatal("Inspect() expected error for database without tables")
	}
	if !apperrors.HasKind(err, apperrors.SchemaLoad) {
		t.Errorf("Inspect() error kind = %v, want schema_load", err)
	}
}

func TestSQLiteGateway_InspectSamples(t *testing.T) {
	g := openTestGateway(t, Options{SampleValues: 2},
		`CREATE TABLE cities (name TEXT, population INTEGER)`,
		`INSERT INTO cities VALUES ('Fresno', 542000), ('Alameda', 78000), (NULL, NULL), ('Fresno', 542000)`,
	)

	s, err := g.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	name := s.Tables[0].Columns[0]
	wantNames := []string{"'Alameda'", "'Fresno'"}
	if !reflect.DeepEqual(name.Samples, wantNames) {
		t.Errorf("name samples = %v, want %v", name.Samples, wantNames)
	}
	pop := s.Tables[0].Columns[1]
	wantPops := []string{"78000", "542000"}
	if !reflect.DeepEqual(pop.Samples, wantPops) {
		t.Errorf("population samples = %v, want %v", pop.Samples, wantPops)
	}
}

func TestClassifySQLite(t *testing.T) {
	tests := []struct {
		name    string
		err     string
		expired bool
		want    ErrorKind
	}{
		{name: "syntax error", err: `near "SELCT": syntax error (1)`, want: ErrorSyntax},
		{name: "missing table", err: "no such table: usres (1)", want: ErrorSyntax},
		{name: "missing column", err: "no such column: nme", want: ErrorSyntax},
		{name: "ambiguous column", err: "ambiguous column name: id", want: ErrorSyntax},
		{name: "constraint violation", err: "constraint failed: UNIQUE constraint failed: t.id", want: ErrorRuntime},
		{name: "readonly write", err: "attempt to write a readonly database (8)", want: ErrorRuntime},
		{name: "interrupt", err: "interrupted (9)", want: ErrorTimeout},
		{name: "deadline", err: "driver gave up", expired: true, want: ErrorTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.expired {
				var cancel context.CancelFunc
				ctx, cancel = context.WithDeadline(ctx, time.Now().Add(-time.Second))
				defer cancel()
			}
			out := classifySQLite(ctx, errors.New(tt.err))
			if out.Err == nil {
				t.Fatal("classifySQLite() produced a success outcome")
			}
			if out.Err.Kind != tt.want {
				t.Errorf("classifySQLite() kind = %v, want %v", out.Err.Kind, tt.want)
			}
		})
	}
}

func tableNames(tables []schema.Table) []string {
	names := make([]string, len(tables))
	for i, table := range tables {
		names[i] = table.Name
	}
	return names
}
