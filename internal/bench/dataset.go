// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bench runs the agent pipeline over a BIRD-style benchmark dataset
// and scores it by execution accuracy. It owns dataset loading, the parallel
// question runner, the evaluator's multiset row comparison, and the results
// artifact.
package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

// Question is one benchmark entry from dev.json.
type Question struct {
	ID       int    `json:"question_id"`
	Question string `json:"question"`
	DBID     string `json:"db_id"`
	GoldSQL  string `json:"gold_sql"`
}

// UnmarshalJSON accepts both the mini-dev "SQL" key and the older
// "gold_sql" spelling for the gold query.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       int    `json:"question_id"`
		Question string `json:"question"`
		DBID     string `json:"db_id"`
		GoldSQL  string `json:"gold_sql"`
		SQL      string `json:"SQL"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.ID = raw.ID
	q.Question = raw.Question
	q.DBID = raw.DBID
	q.GoldSQL = raw.GoldSQL
	if q.GoldSQL == "" {
		q.GoldSQL = raw.SQL
	}
	return nil
}

// questionFiles are the recognized dataset file names, in preference order.
var questionFiles = []string{"dev.json", "mini_dev.json", "mini_dev_sqlite.json"}

// Load reads the benchmark questions under dataDir. A limit above zero
// truncates the set, which keeps trial runs cheap. A missing data directory
// is fatal to the run.
func Load(dataDir string, limit int) ([]Question, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return nil, apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("data directory %s not found", dataDir), err)
	}

	var file string
	for _, name := range questionFiles {
		candidate := filepath.Join(dataDir, name)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
			break
		}
	}
	if file == "" {
		return nil, apperrors.New(apperrors.Dataset,
			fmt.Sprintf("no question file in %s (looked for %v)", dataDir, questionFiles))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("read %s", file), err)
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("parse %s", file), err)
	}
	if len(questions) == 0 {
		return nil, apperrors.New(apperrors.Dataset, fmt.Sprintf("%s contains no questions", file))
	}

	if limit > 0 && limit < len(questions) {
		questions = questions[:limit]
	}
	return questions, nil
}

// DatabasePath resolves the SQLite file for one database id. The BIRD
// releases have shipped several layouts, so each known location is tried in
// order.
func DatabasePath(dataDir, dbID string) (string, error) {
	candidates := []string{
		filepath.Join(dataDir, "database", dbID, dbID+".sqlite"),
		filepath.Join(dataDir, "database", dbID, "sqlite.db"),
		filepath.Join(dataDir, "database", dbID, dbID+".db"),
		filepath.Join(dataDir, "databases", dbID, dbID+".sqlite"),
		filepath.Join(dataDir, "dev_databases", dbID, dbID+".sqlite"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", apperrors.New(apperrors.Dataset,
		fmt.Sprintf("no database file for %q under %s", dbID, dataDir))
}
