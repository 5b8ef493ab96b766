// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schema models relational database structure for prompt construction.
// It provides a typed representation of tables, columns, and foreign keys, a
// strict pruning operation that derives the question-relevant subset chosen by
// the selector agent, and deterministic text serializations for embedding the
// structure in agent prompts.
package schema

import (
	"fmt"
	"strings"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

// Schema is the full structure of one database. Tables appear in declaration
// order as reported by the engine; the order is preserved through pruning and
// serialization so identical input always yields identical prompt text.
type Schema struct {
	// Name identifies the database (BIRD db_id or file base name).
	Name string
	// Tables in declaration order.
	Tables []Table
}

// Table describes one table with its columns in declaration order.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Column describes one column.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
	// Samples holds up to a configured number of example values rendered as
	// text, gathered during introspection. Empty when sampling is disabled.
	Samples []string
}

// ForeignKey records column -> referenced table.column.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	// External marks a key whose target was pruned away but whose
	// relationship is still worth showing to the agents.
	External bool
}

// ColumnRef names one column to keep during pruning. An empty Column keeps
// every column of the table.
type ColumnRef struct {
	Table  string
	Column string
}

// Table returns the table with the given name. Matching is case-insensitive
// because SQL identifiers are.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// Column returns the column with the given name, case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Validate checks the structural invariants: at least one table, column names
// unique within each table, and every foreign key referencing an existing
// table and column.
func (s *Schema) Validate() error {
	if len(s.Tables) == 0 {
		return apperrors.New(apperrors.SchemaLoad, fmt.Sprintf("database %q has no tables", s.Name))
	}
	for _, t := range s.Tables {
		seen := make(map[string]struct{}, len(t.Columns))
		for _, c := range t.Columns {
			key := strings.ToLower(c.Name)
			if _, dup := seen[key]; dup {
				return apperrors.New(apperrors.SchemaLoad,
					fmt.Sprintf("table %q declares column %q more than once", t.Name, c.Name))
			}
			seen[key] = struct{}{}
		}
		for _, fk := range t.ForeignKeys {
			if _, ok := t.Column(fk.Column); !ok {
				return apperrors.New(apperrors.SchemaLoad,
					fmt.Sprintf("table %q foreign key uses unknown column %q", t.Name, fk.Column))
			}
			ref, ok := s.Table(fk.RefTable)
			if !ok {
				return apperrors.New(apperrors.SchemaLoad,
					fmt.Sprintf("table %q foreign key references unknown table %q", t.Name, fk.RefTable))
			}
			if fk.RefColumn != "" {
				if _, ok := ref.Column(fk.RefColumn); !ok {
					return apperrors.New(apperrors.SchemaLoad,
						fmt.Sprintf("table %q foreign key references unknown column %q.%q", t.Name, fk.RefTable, fk.RefColumn))
				}
			}
		}
	}
	return nil
}

// Prune constructs the subset of the schema named by keep. The result keeps
// the original declaration order of tables and columns regardless of the
// order of keep entries. A foreign key survives when its source column is
// kept; if its target was pruned away the key is retained with External set
// so the relationship stays visible in prompts.
//
// Pruning is strict: a reference to a table or column that does not exist,
// or an empty keep set, fails with an invalid_prune error and no partial
// result. Callers that want a lenient policy handle the error themselves.
func (s *Schema) Prune(keep []ColumnRef) (*Schema, error) {
	if len(keep) == 0 {
		return nil, apperrors.New(apperrors.InvalidPrune, "empty keep set")
	}

	// Resolve refs up front so failures never yield a partial schema.
	keepCols := make(map[string]map[string]struct{})
	for _, ref := range keep {
		t, ok := s.Table(ref.Table)
		if !ok {
			return nil, apperrors.New(apperrors.InvalidPrune,
				fmt.Sprintf("keep set references unknown table %q", ref.Table))
		}
		key := strings.ToLower(t.Name)
		if keepCols[key] == nil {
			keepCols[key] = make(map[string]struct{})
		}
		if ref.Column == "" {
			for _, c := range t.Columns {
				keepCols[key][strings.ToLower(c.Name)] = struct{}{}
			}
			continue
		}
		c, ok := t.Column(ref.Column)
		if !ok {
			return nil, apperrors.New(apperrors.InvalidPrune,
				fmt.Sprintf("keep set references unknown column %q.%q", ref.Table, ref.Column))
		}
		keepCols[key][strings.ToLower(c.Name)] = struct{}{}
	}

	pruned := &Schema{Name: s.Name}
	for _, t := range s.Tables {
		cols, ok := keepCols[strings.ToLower(t.Name)]
		if !ok {
			continue
		}
		nt := Table{Name: t.Name}
		for _, c := range t.Columns {
			if _, kept := cols[strings.ToLower(c.Name)]; kept {
				nt.Columns = append(nt.Columns, c)
			}
		}
		for _, fk := range t.ForeignKeys {
			if _, kept := cols[strings.ToLower(fk.Column)]; !kept {
				continue
			}
			if targetKept(keepCols, fk) {
				nt.ForeignKeys = append(nt.ForeignKeys, fk)
			} else {
				ext := fk
				ext.External = true
				nt.ForeignKeys = append(nt.ForeignKeys, ext)
			}
		}
		pruned.Tables = append(pruned.Tables, nt)
	}
	return pruned, nil
}

// Identity returns the keep set covering every column of every table, used
// for the identity prune fallback.
func (s *Schema) Identity() []ColumnRef {
	refs := make([]ColumnRef, 0, len(s.Tables))
	for _, t := range s.Tables {
		refs = append(refs, ColumnRef{Table: t.Name})
	}
	return refs
}

func targetKept(keepCols map[string]map[string]struct{}, fk ForeignKey) bool {
	cols, ok := keepCols[strings.ToLower(fk.RefTable)]
	if !ok {
		return false
	}
	if fk.RefColumn == "" {
		return true
	}
	_, ok = cols[strings.ToLower(fk.RefColumn)]
	return ok
}
