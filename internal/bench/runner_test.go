// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/abdoukaba/Autogen-BIRD/internal/agents"
	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	"github.com/abdoukaba/Autogen-BIRD/internal/llm"
)

// scriptedGen routes by agent role and question text so concurrent workers
// can share it without coordination.
type scriptedGen struct{}

func (scriptedGen) Generate(ctx context.Context, req llm.Request) (string, error) {
	switch {
	case strings.Contains(req.System, "database analyst"):
		return `{"tables": [{"name": "users", "columns": ["id", "name", "age"]}]}`, nil
	case strings.Contains(req.System, "SQL fixer"):
		return "The table name was misspelled.\n```sql\nSELECT COUNT(*) FROM users WHERE age > 30;\n```", nil
	case strings.Contains(req.User, "How many users are over 30?"):
		return "```sql\nSELECT COUNT(*) FROM usres WHERE age > 30;\n```", nil
	default:
		return "```sql\nSELECT COUNT(*) FROM users;\n```", nil
	}
}

// buildBenchmark lays out a minimal BIRD-style data directory with one
// SQLite database and two questions: a repairable typo, and one whose gold
// query no longer matches the schema.
func buildBenchmark(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	dbDir := filepath.Join(dir, "database", "people")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", "file:"+filepath.Join(dbDir, "people.sqlite"))
	if err != nil {
		t.Fatalf("open setup connection: %v", err)
	}
	stmts := []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)",
		"INSERT INTO users (name, age) VALUES ('ann', 41), ('bo', 25), ('cy', 37), ('di', 52), ('ed', 31), ('fay', 29)",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup statement: %v", err)
		}
	}
	db.Close()

	questions := []map[string]any{
		{
			"question_id": 0,
			"question":    "How many users are over 30?",
			"db_id":       "people",
			"SQL":         "SELECT COUNT(*) FROM users WHERE age > 30",
		},
		{
			"question_id": 1,
			"question":    "How many users are there?",
			"db_id":       "people",
			// Schema drift: the gold query references a table that no
			// longer exists.
			"SQL": "SELECT COUNT(*) FROM accounts",
		},
	}
	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dev.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunner_EndToEnd(t *testing.T) {
	dir := buildBenchmark(t)
	cfg := config.Defaults()
	cfg.Workers = 2

	runner := NewRunner(cfg, scriptedGen{}, zap.NewNop())
	report, err := runner.Run(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Total != 2 {
		t.Fatalf("report total = %d, want 2", report.Total)
	}
	if report.Correct != 1 {
		t.Errorf("report correct = %d, want 1", report.Correct)
	}
	if report.Accuracy != 0.5 {
		t.Errorf("report accuracy = %v, want 0.5", report.Accuracy)
	}

	// Question order in the report follows the dataset regardless of which
	// worker finished first.
	typo := report.Questions[0]
	if typo.QuestionID != 0 {
		t.Fatalf("first entry id = %d, want 0", typo.QuestionID)
	}
	if !typo.ExecutionCorrect {
		t.Errorf("typo question should be repaired and correct: %+v", typo)
	}
	if typo.Iterations != 2 {
		t.Errorf("typo question iterations = %d, want 2", typo.Iterations)
	}
	if typo.State != agents.StateDoneSuccess {
		t.Errorf("typo question state = %v", typo.State)
	}
	if typo.PredictedSQL != "SELECT COUNT(*) FROM users WHERE age > 30;" {
		t.Errorf("typo question predicted = %q", typo.PredictedSQL)
	}

	drift := report.Questions[1]
	if drift.ExecutionCorrect {
		t.Error("gold-drift question must not score correct")
	}
	if !drift.GoldExecutionFailed {
		t.Error("gold-drift question must be annotated gold_execution_failed")
	}
	if drift.PredictedSQL == "" {
		t.Error("gold-drift question must still record the predicted SQL")
	}

	// Progress events were emitted for both questions and the channel is
	// closed after Run.
	started, finished := 0, 0
	var last Event
	for ev := range runner.Events() {
		switch ev.Type {
		case EventQuestionStarted:
			started++
		case EventQuestionFinished:
			finished++
		}
		last = ev
	}
	if started != 2 || finished != 2 {
		t.Errorf("events started/finished = %d/%d, want 2/2", started, finished)
	}
	if last.Type != EventRunFinished || last.Total != 2 || last.TotalCorrect != 1 {
		t.Errorf("final event = %+v, want run_finished with 2 total, 1 correct", last)
	}
}

func TestRunner_MissingDatabaseIsPerQuestion(t *testing.T) {
	dir := buildBenchmark(t)
	// Add a question pointing at a database that does not exist.
	data, err := os.ReadFile(filepath.Join(dir, "dev.json"))
	if err != nil {
		t.Fatal(err)
	}
	var questions []map[string]any
	if err := json.Unmarshal(data, &questions); err != nil {
		t.Fatal(err)
	}
	questions = append(questions, map[string]any{
		"question_id": 2,
		"question":    "Anything?",
		"db_id":       "ghost",
		"SQL":         "SELECT 1",
	})
	data, _ = json.Marshal(questions)
	if err := os.WriteFile(filepath.Join(dir, "dev.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.Workers = 1
	report, err := NewRunner(cfg, scriptedGen{}, zap.NewNop()).Run(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("Run() error = %v (a broken question must not abort the run)", err)
	}
	if report.Total != 3 {
		t.Fatalf("report total = %d, want 3", report.Total)
	}
	ghost := report.Questions[2]
	if ghost.ExecutionCorrect {
		t.Error("question without a database cannot be correct")
	}
	if ghost.FailureReason == "" {
		t.Error("question without a database needs an explicit failure reason")
	}
}

func TestReportWrite(t *testing.T) {
	dir := buildBenchmark(t)
	cfg := config.Defaults()
	report, err := NewRunner(cfg, scriptedGen{}, zap.NewNop()).Run(context.Background(), dir, 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := filepath.Join(t.TempDir(), "logs", "results.json")
	if err := report.Write(out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var loaded Report
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if loaded.Total != 1 || len(loaded.Questions) != 1 {
		t.Errorf("round-tripped report = %+v", loaded)
	}
	if len(loaded.Questions[0].Turns) == 0 {
		t.Error("report entry lost its agent trace")
	}
}
