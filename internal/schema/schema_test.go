// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"strings"
	"testing"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

func sampleSchema() *Schema {
	return &Schema{
		Name: "company",
		Tables: []Table{
			{
				Name: "departments",
				Columns: []Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true},
					{Name: "name", Type: "TEXT", NotNull: true},
				},
			},
			{
				Name: "employees",
				Columns: []Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true},
					{Name: "name", Type: "TEXT"},
					{Name: "salary", Type: "REAL"},
					{Name: "department_id", Type: "INTEGER"},
				},
				ForeignKeys: []ForeignKey{
					{Column: "department_id", RefTable: "departments", RefColumn: "id"},
				},
			},
		},
	}
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name        string
		keep        []ColumnRef
		wantTables  []string
		wantColumns map[string][]string
		wantErr     bool
	}{
		{
			name: "subset of columns",
			keep: []ColumnRef{
				{Table: "employees", Column: "salary"},
				{Table: "employees", Column: "id"},
			},
			wantTables:  []string{"employees"},
			wantColumns: map[string][]string{"employees": {"id", "salary"}},
		},
		{
			name:        "whole table reference",
			keep:        []ColumnRef{{Table: "departments"}},
			wantTables:  []string{"departments"},
			wantColumns: map[string][]string{"departments": {"id", "name"}},
		},
		{
			name: "declaration order preserved regardless of keep order",
			keep: []ColumnRef{
				{Table: "employees", Column: "department_id"},
				{Table: "departments", Column: "id"},
				{Table: "employees", Column: "name"},
			},
			wantTables: []string{"departments", "employees"},
			wantColumns: map[string][]string{
				"departments": {"id"},
				"employees":   {"name", "department_id"},
			},
		},
		{
			name:    "unknown table",
			keep:    []ColumnRef{{Table: "usres", Column: "id"}},
			wantErr: true,
		},
		{
			name:    "unknown column",
			keep:    []ColumnRef{{Table: "employees", Column: "wage"}},
			wantErr: true,
		},
		{
			name:    "empty keep set",
			keep:    nil,
			wantErr: true,
		},
		{
			name: "case-insensitive references",
			keep: []ColumnRef{
				{Table: "Employees", Column: "SALARY"},
			},
			wantTables:  []string{"employees"},
			wantColumns: map[string][]string{"employees": {"salary"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSchema()
			pruned, err := s.Prune(tt.keep)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Prune() error = nil, want invalid_prune error")
				}
				if !apperrors.HasKind(err, apperrors.InvalidPrune) {
					t.Errorf("Prune() error kind = %v, want invalid_prune", err)
				}
				if pruned != nil {
					t.Errorf("Prune() returned partial schema alongside error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Prune() error = %v, want nil", err)
			}
			var gotTables []string
			for _, tab := range pruned.Tables {
				gotTables = append(gotTables, tab.Name)
			}
			if strings.Join(gotTables, ",") != strings.Join(tt.wantTables, ",") {
				t.Errorf("Prune() tables = %v, want %v", gotTables, tt.wantTables)
			}
			for _, tab := range pruned.Tables {
				var gotCols []string
				for _, c := range tab.Columns {
					gotCols = append(gotCols, c.Name)
				}
				want := tt.wantColumns[tab.Name]
				if strings.Join(gotCols, ",") != strings.Join(want, ",") {
					t.Errorf("Prune() %s columns = %v, want %v", tab.Name, gotCols, want)
				}
			}
		})
	}
}

func TestPruneForeignKeys(t *testing.T) {
	t.Run("target kept", func(t *testing.T) {
		s := sampleSchema()
		pruned, err := s.Prune([]ColumnRef{
			{Table: "employees", Column: "department_id"},
			{Table: "departments", Column: "id"},
		})
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		emp, ok := pruned.Table("employees")
		if !ok || len(emp.ForeignKeys) != 1 {
			t.Fatalf("Prune() employees foreign keys = %v, want 1", emp)
		}
		if emp.ForeignKeys[0].External {
			t.Errorf("Prune() foreign key marked external, want internal")
		}
	})

	t.Run("target pruned away", func(t *testing.T) {
		s := sampleSchema()
		pruned, err := s.Prune([]ColumnRef{
			{Table: "employees", Column: "department_id"},
		})
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		emp, _ := pruned.Table("employees")
		if len(emp.ForeignKeys) != 1 {
			t.Fatalf("Prune() employees foreign keys = %d, want 1", len(emp.ForeignKeys))
		}
		if !emp.ForeignKeys[0].External {
			t.Errorf("Prune() foreign key external = false, want true")
		}
	})

	t.Run("source column pruned drops the key", func(t *testing.T) {
		s := sampleSchema()
		pruned, err := s.Prune([]ColumnRef{
			{Table: "employees", Column: "salary"},
		})
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		emp, _ := pruned.Table("employees")
		if len(emp.ForeignKeys) != 0 {
			t.Errorf("Prune() employees foreign keys = %d, want 0", len(emp.ForeignKeys))
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Schema)
		wantErr bool
	}{
		{
			name:   "valid schema",
			mutate: func(*Schema) {},
		},
		{
			name:    "zero tables",
			mutate:  func(s *Schema) { s.Tables = nil },
			wantErr: true,
		},
		{
			name: "duplicate column names",
			mutate: func(s *Schema) {
				s.Tables[0].Columns = append(s.Tables[0].Columns, Column{Name: "ID", Type: "INTEGER"})
			},
			wantErr: true,
		},
		{
			name: "foreign key to unknown table",
			mutate: func(s *Schema) {
				s.Tables[1].ForeignKeys[0].RefTable = "divisions"
			},
			wantErr: true,
		},
		{
			name: "foreign key to unknown column",
			mutate: func(s *Schema) {
				s.Tables[1].ForeignKeys[0].RefColumn = "uuid"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSchema()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	s := sampleSchema()
	pruned, err := s.Prune(s.Identity())
	if err != nil {
		t.Fatalf("Prune(Identity()) error = %v", err)
	}
	if Format(pruned) != Format(s) {
		t.Errorf("identity prune changed the serialized schema")
	}
}
