// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"strings"
)

// Format renders the schema as the detailed text block embedded in agent
// prompts. Tables and columns appear in declaration order; the output is a
// pure function of the schema, so identical input yields byte-identical text.
func Format(s *Schema) string {
	var b strings.Builder
	for i, t := range s.Tables {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Table: ")
		b.WriteString(t.Name)
		b.WriteString("\nColumns: ")
		for j, c := range t.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(" (")
			b.WriteString(columnType(c))
			b.WriteString(")")
			if c.PrimaryKey {
				b.WriteString(" [PK]")
			}
		}
		if fks := formatForeignKeys(t.ForeignKeys); fks != "" {
			b.WriteString("\nForeign Keys: ")
			b.WriteString(fks)
		}
		if samples := formatSamples(t.Columns); samples != "" {
			b.WriteString("\nSample Values: ")
			b.WriteString(samples)
		}
	}
	return b.String()
}

// Summary renders the compact one-line-per-table overview that prefixes the
// decomposer and refiner prompts.
func Summary(s *Schema) string {
	var b strings.Builder
	b.WriteString("Database schema (summary):\n")
	for _, t := range s.Tables {
		b.WriteString("- ")
		b.WriteString(t.Name)
		b.WriteString(" (columns: ")
		for j, c := range t.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
		}
		b.WriteString(")\n")
	}
	b.WriteString("End of schema.")
	return b.String()
}

func columnType(c Column) string {
	if c.Type == "" {
		return "ANY"
	}
	return c.Type
}

func formatForeignKeys(fks []ForeignKey) string {
	if len(fks) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fks))
	for _, fk := range fks {
		ref := fk.RefTable
		if fk.RefColumn != "" {
			ref += "." + fk.RefColumn
		}
		s := fk.Column + " -> " + ref
		if fk.External {
			s += " (external)"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

func formatSamples(cols []Column) string {
	var parts []string
	for _, c := range cols {
		if len(c.Samples) == 0 {
			continue
		}
		parts = append(parts, c.Name+": "+strings.Join(c.Samples, ", "))
	}
	return strings.Join(parts, "; ")
}
