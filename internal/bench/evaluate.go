// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdoukaba/Autogen-BIRD/internal/sqlexec"
)

// Verdict is the evaluator's judgment of one question.
type Verdict struct {
	Correct bool
	// GoldFailed marks an evaluation-infrastructure fault: the gold query
	// itself did not execute. Kept distinct from a plain mismatch so model
	// faults and benchmark faults stay distinguishable in the report.
	GoldFailed bool
}

// Evaluate executes the gold query once (gold queries are assumed valid and
// never enter the refinement loop) and compares its rows against the
// predicted outcome. A failed prediction can never be correct; a failed gold
// execution marks the question GoldFailed instead of silently scoring a
// mismatch.
func Evaluate(ctx context.Context, gw sqlexec.Gateway, goldSQL string, predicted sqlexec.Outcome) Verdict {
	gold := gw.Query(ctx, goldSQL)
	if !gold.OK() {
		return Verdict{GoldFailed: true}
	}
	if !predicted.OK() {
		return Verdict{}
	}
	return Verdict{Correct: RowsMatch(gold.Rows, predicted.Rows)}
}

// RowsMatch compares two result sets as multisets of rows: order is
// ignored, duplicates matter. Values are normalized first so SQLite's loose
// typing (5 vs 5.0, mixed string case) does not produce spurious
// mismatches.
func RowsMatch(a, b [][]any) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, row := range a {
		counts[rowKey(row)]++
	}
	for _, row := range b {
		key := rowKey(row)
		counts[key]--
		if counts[key] < 0 {
			return false
		}
	}
	return true
}

// rowKey renders one normalized row as a comparable string. The unit
// separator keeps adjacent values from gluing into false equalities.
func rowKey(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprintf("%v", NormalizeValue(v))
	}
	return strings.Join(parts, "\x1f")
}

// NormalizeValue maps a result value onto the comparison domain: every
// numeric type becomes float64, strings are lowercased, NULL stays nil.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return float64(1)
		}
		return float64(0)
	case []byte:
		return strings.ToLower(string(x))
	case string:
		return strings.ToLower(x)
	default:
		return strings.ToLower(fmt.Sprintf("%v", x))
	}
}
