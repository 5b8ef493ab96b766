// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import (
	"context"
	"testing"

	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
	"github.com/abdoukaba/Autogen-BIRD/internal/sqlexec"
)

func TestRowsMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b [][]any
		want bool
	}{
		{
			name: "identical",
			a:    [][]any{{int64(1), "a"}, {int64(2), "b"}},
			b:    [][]any{{int64(1), "a"}, {int64(2), "b"}},
			want: true,
		},
		{
			name: "order independent",
			a:    [][]any{{int64(1), "a"}, {int64(2), "b"}},
			b:    [][]any{{int64(2), "b"}, {int64(1), "a"}},
			want: true,
		},
		{
			name: "duplicates matter",
			a:    [][]any{{int64(1), "a"}, {int64(1), "a"}},
			b:    [][]any{{int64(1), "a"}},
			want: false,
		},
		{
			name: "duplicate counts must agree",
			a:    [][]any{{int64(1)}, {int64(1)}, {int64(2)}},
			b:    [][]any{{int64(1)}, {int64(2)}, {int64(2)}},
			want: false,
		},
		{
			name: "integer and float forms of the same number",
			a:    [][]any{{int64(5)}},
			b:    [][]any{{float64(5)}},
			want: true,
		},
		{
			name: "string case ignored",
			a:    [][]any{{"Alameda"}},
			b:    [][]any{{"alameda"}},
			want: true,
		},
		{
			name: "null preserved",
			a:    [][]any{{nil, int64(1)}},
			b:    [][]any{{nil, int64(1)}},
			want: true,
		},
		{
			name: "different values",
			a:    [][]any{{int64(1)}},
			b:    [][]any{{int64(2)}},
			want: false,
		},
		{
			name: "adjacent values do not glue together",
			a:    [][]any{{"ab", "c"}},
			b:    [][]any{{"a", "bc"}},
			want: false,
		},
		{
			name: "both empty",
			a:    [][]any{},
			b:    [][]any{},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RowsMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("RowsMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

// verdictGateway scripts the gold query's outcome.
type verdictGateway struct {
	gold sqlexec.Outcome
}

func (g *verdictGateway) Query(ctx context.Context, sql string) sqlexec.Outcome { return g.gold }
func (g *verdictGateway) Inspect(ctx context.Context) (*schema.Schema, error)  { return nil, nil }
func (g *verdictGateway) Close()                                               {}

func TestEvaluate(t *testing.T) {
	success := sqlexec.Outcome{Columns: []string{"n"}, Rows: [][]any{{int64(5)}}}
	tests := []struct {
		name      string
		gold      sqlexec.Outcome
		predicted sqlexec.Outcome
		want      Verdict
	}{
		{
			name:      "match",
			gold:      success,
			predicted: sqlexec.Outcome{Columns: []string{"cnt"}, Rows: [][]any{{float64(5)}}},
			want:      Verdict{Correct: true},
		},
		{
			name:      "mismatch",
			gold:      success,
			predicted: sqlexec.Outcome{Columns: []string{"n"}, Rows: [][]any{{int64(4)}}},
			want:      Verdict{},
		},
		{
			name:      "predicted failed",
			gold:      success,
			predicted: sqlexec.Failure(sqlexec.ErrorSyntax, "no such table"),
			want:      Verdict{},
		},
		{
			name:      "gold failed",
			gold:      sqlexec.Failure(sqlexec.ErrorRuntime, "schema drift"),
			predicted: success,
			want:      Verdict{GoldFailed: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(context.Background(), &verdictGateway{gold: tt.gold}, "SELECT 1", tt.predicted)
			if got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
