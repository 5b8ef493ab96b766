// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agents

import (
	"reflect"
	"testing"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "fenced block",
			text:   "Let me think.\n```sql\nSELECT COUNT(*) FROM users;\n```\nDone.",
			want:   "SELECT COUNT(*) FROM users;",
			wantOK: true,
		},
		{
			name: "last fence wins",
			text: "First try:\n```sql\nSELECT 1;\n```\nActually, better:\n```sql\nSELECT 2;\n```",
			want: "SELECT 2;", wantOK: true,
		},
		{
			name:   "uppercase fence tag",
			text:   "```SQL\nSELECT name FROM t;\n```",
			want:   "SELECT name FROM t;",
			wantOK: true,
		},
		{
			name:   "bare terminated statement",
			text:   "The query is SELECT id FROM users WHERE age > 30; which should work.",
			want:   "SELECT id FROM users WHERE age > 30;",
			wantOK: true,
		},
		{
			name: "last bare statement wins",
			text: "SELECT 1; is wrong. Use SELECT 2; instead.",
			want: "SELECT 2;", wantOK: true,
		},
		{
			name:   "with clause",
			text:   "WITH top AS (SELECT * FROM t) SELECT COUNT(*) FROM top;",
			want:   "WITH top AS (SELECT * FROM t) SELECT COUNT(*) FROM top;",
			wantOK: true,
		},
		{
			name:   "unterminated trailing statement gets semicolon",
			text:   "Here you go:\nSELECT name\nFROM users",
			want:   "SELECT name\nFROM users;",
			wantOK: true,
		},
		{
			name:   "no sql at all",
			text:   "I cannot answer this question with the given schema.",
			wantOK: false,
		},
		{
			name:   "empty fence falls through to prose",
			text:   "```sql\n```\nsorry, nothing",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSQL(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ExtractSQL() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractKeep(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   []KeepTable
		wantOK bool
	}{
		{
			name:   "fenced json",
			text:   "```json\n{\"tables\": [{\"name\": \"users\", \"columns\": [\"id\", \"age\"]}]}\n```",
			want:   []KeepTable{{Name: "users", Columns: []string{"id", "age"}}},
			wantOK: true,
		},
		{
			name:   "bare object in prose",
			text:   "Relevant schema: {\"tables\": [{\"name\": \"users\", \"columns\": [\"age\"]}]} as requested.",
			want:   []KeepTable{{Name: "users", Columns: []string{"age"}}},
			wantOK: true,
		},
		{
			name:   "whole response is json",
			text:   "{\"tables\": [{\"name\": \"orders\"}]}",
			want:   []KeepTable{{Name: "orders"}},
			wantOK: true,
		},
		{
			name:   "empty table list",
			text:   "{\"tables\": []}",
			wantOK: false,
		},
		{
			name:   "not json",
			text:   "you should keep the users table",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractKeep(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ExtractKeep() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeep() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
