// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agents

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Extraction is pure text surgery on free-form agent responses. Agents are
// asked for fenced output but do not reliably comply, so each function has a
// chain of progressively looser patterns and an explicit failure result
// instead of a guess.

var (
	sqlFenceRe     = regexp.MustCompile("(?is)```sql\\s*(.*?)```")
	sqlStatementRe = regexp.MustCompile(`(?is)\b(?:SELECT|WITH)\b[\s\S]*?;`)
	sqlTrailingRe  = regexp.MustCompile(`(?is)\b(?:SELECT|WITH)\b[\s\S]*$`)
	jsonFenceRe    = regexp.MustCompile("(?s)```json\\s*(.*?)```")
)

// ExtractSQL pulls the final SQL statement out of a response. Preference
// order: the last ```sql fence, then the last terminated SELECT/WITH
// statement, then an unterminated trailing one (a semicolon is appended).
// Returns false when no statement is present; callers substitute the empty
// sentinel.
func ExtractSQL(text string) (string, bool) {
	if fences := sqlFenceRe.FindAllStringSubmatch(text, -1); len(fences) > 0 {
		sql := strings.TrimSpace(fences[len(fences)-1][1])
		if sql != "" {
			return sql, true
		}
	}

	if stmts := sqlStatementRe.FindAllString(text, -1); len(stmts) > 0 {
		return strings.TrimSpace(stmts[len(stmts)-1]), true
	}

	if stmt := sqlTrailingRe.FindString(text); stmt != "" {
		sql := strings.TrimSpace(stmt)
		if !strings.HasSuffix(sql, ";") {
			sql += ";"
		}
		return sql, true
	}

	return "", false
}

// KeepTable is one entry of the selector's JSON answer.
type KeepTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ExtractKeep parses the selector's keep set. Preference order: a ```json
// fence, then the outermost brace-delimited object, then the whole response.
// Returns false when nothing parses to a non-empty table list; the selector
// then applies its fallback policy.
func ExtractKeep(text string) ([]KeepTable, bool) {
	var candidates []string
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}
	candidates = append(candidates, text)

	for _, c := range candidates {
		var parsed struct {
			Tables []KeepTable `json:"tables"`
		}
		if err := json.Unmarshal([]byte(c), &parsed); err != nil {
			continue
		}
		if len(parsed.Tables) == 0 {
			continue
		}
		return parsed.Tables, true
	}
	return nil, false
}
