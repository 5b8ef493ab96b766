// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import "sync"

// ProgressState tracks per-question status for the run UI across concurrent
// workers. All methods are safe for concurrent use.
type ProgressState struct {
	mu       sync.Mutex
	total    int
	active   map[int]string
	finished map[int]bool
	failed   map[int]string
	order    []int
	correct  int
}

// NewProgressState creates tracking state for a run over total questions.
func NewProgressState(total int) *ProgressState {
	return &ProgressState{
		total:    total,
		active:   make(map[int]string),
		finished: make(map[int]bool),
		failed:   make(map[int]string),
	}
}

// Start marks a question as in flight.
func (ps *ProgressState) Start(id int, db string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, seen := ps.active[id]; !seen {
		ps.order = append(ps.order, id)
	}
	ps.active[id] = db
}

// Finish records a question's verdict. A non-empty reason marks a question
// that died before producing a comparable answer.
func (ps *ProgressState) Finish(id int, correct bool, reason string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.active, id)
	ps.finished[id] = correct
	if correct {
		ps.correct++
	}
	if reason != "" {
		ps.failed[id] = reason
	}
}

// QuestionStatus is one row of the progress snapshot.
type QuestionStatus struct {
	ID      int
	DB      string
	Running bool
	Correct bool
	Reason  string
}

// Snapshot returns the per-question statuses in start order plus the
// aggregate counters. The snapshot is a copy; the renderer never holds the
// lock while drawing.
func (ps *ProgressState) Snapshot() (rows []QuestionStatus, done, correct, total int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, id := range ps.order {
		if db, ok := ps.active[id]; ok {
			rows = append(rows, QuestionStatus{ID: id, DB: db, Running: true})
			continue
		}
		rows = append(rows, QuestionStatus{
			ID:      id,
			Correct: ps.finished[id],
			Reason:  ps.failed[id],
		})
	}
	return rows, len(ps.finished), ps.correct, ps.total
}
