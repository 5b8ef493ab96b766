// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/abdoukaba/Autogen-BIRD/internal/agents"
	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
	"github.com/abdoukaba/Autogen-BIRD/internal/sqlexec"
)

// QuestionReport is one serialized question entry: the prediction, the full
// agent trace, and every execution outcome. Questions that failed before a
// candidate existed still appear, with a failure reason instead of omission,
// so accuracy is always computed over the full set.
type QuestionReport struct {
	QuestionID          int               `json:"question_id"`
	Question            string            `json:"question"`
	DBID                string            `json:"db_id"`
	GoldSQL             string            `json:"gold_sql"`
	PredictedSQL        string            `json:"predicted_sql"`
	State               agents.State      `json:"state"`
	Iterations          int               `json:"iterations"`
	ExecutionCorrect    bool              `json:"execution_correct"`
	GoldExecutionFailed bool              `json:"gold_execution_failed,omitempty"`
	FailureReason       string            `json:"failure_reason,omitempty"`
	Turns               []agents.Turn     `json:"turns,omitempty"`
	Outcomes            []sqlexec.Outcome `json:"outcomes,omitempty"`
}

// Report is the write-once run artifact.
type Report struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	DurationMS int64            `json:"duration_ms"`
	Total      int              `json:"total"`
	Correct    int              `json:"correct"`
	Accuracy   float64          `json:"accuracy"`
	Questions  []QuestionReport `json:"questions"`
}

// NewReport assembles the aggregate from finished question entries.
func NewReport(questions []QuestionReport, startedAt, finishedAt time.Time) *Report {
	r := &Report{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		DurationMS: finishedAt.Sub(startedAt).Milliseconds(),
		Total:      len(questions),
		Questions:  questions,
	}
	for _, q := range questions {
		if q.ExecutionCorrect {
			r.Correct++
		}
	}
	if r.Total > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Total)
	}
	return r
}

// Write serializes the report as indented JSON, creating parent directories
// as needed.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.Dataset, "encode report", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(apperrors.Dataset, "create report dir", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.Dataset, "write report", err)
	}
	return nil
}
