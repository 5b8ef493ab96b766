// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

func writeDataset(t *testing.T, devJSON string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dev.json"), []byte(devJSON), 0o644); err != nil {
		t.Fatalf("write dev.json: %v", err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeDataset(t, `[
		{"question_id": 0, "question": "How many users?", "db_id": "people", "SQL": "SELECT COUNT(*) FROM users"},
		{"question_id": 1, "question": "Oldest user?", "db_id": "people", "gold_sql": "SELECT MAX(age) FROM users"},
		{"question_id": 2, "question": "Third", "db_id": "people", "SQL": "SELECT 3"}
	]`)

	questions, err := Load(dir, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("Load() returned %d questions, want 3", len(questions))
	}
	// Both gold SQL key spellings must land in GoldSQL.
	if questions[0].GoldSQL != "SELECT COUNT(*) FROM users" {
		t.Errorf("SQL key: gold = %q", questions[0].GoldSQL)
	}
	if questions[1].GoldSQL != "SELECT MAX(age) FROM users" {
		t.Errorf("gold_sql key: gold = %q", questions[1].GoldSQL)
	}
}

func TestLoad_Limit(t *testing.T) {
	dir := writeDataset(t, `[
		{"question_id": 0, "question": "a", "db_id": "d", "SQL": "SELECT 1"},
		{"question_id": 1, "question": "b", "db_id": "d", "SQL": "SELECT 2"}
	]`)

	questions, err := Load(dir, 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(questions) != 1 || questions[0].ID != 0 {
		t.Errorf("Load() with limit 1 = %+v", questions)
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), 0)
	if err == nil {
		t.Fatal("Load() expected error for missing directory")
	}
	if !apperrors.HasKind(err, apperrors.Dataset) {
		t.Errorf("Load() error kind = %v, want dataset", err)
	}
}

func TestLoad_NoQuestionFile(t *testing.T) {
	_, err := Load(t.TempDir(), 0)
	if err == nil {
		t.Fatal("Load() expected error for empty data dir")
	}
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()
	dbDir := filepath.Join(dir, "database", "people")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// The legacy layout uses a fixed sqlite.db file name.
	if err := os.WriteFile(filepath.Join(dbDir, "sqlite.db"), []byte{}, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DatabasePath(dir, "people")
	if err != nil {
		t.Fatalf("DatabasePath() error = %v", err)
	}
	if got != filepath.Join(dbDir, "sqlite.db") {
		t.Errorf("DatabasePath() = %q", got)
	}

	if _, err := DatabasePath(dir, "missing"); err == nil {
		t.Error("DatabasePath() expected error for unknown db id")
	}
}
