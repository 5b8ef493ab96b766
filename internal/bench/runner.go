// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abdoukaba/Autogen-BIRD/internal/agents"
	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	"github.com/abdoukaba/Autogen-BIRD/internal/llm"
	"github.com/abdoukaba/Autogen-BIRD/internal/sqlexec"
)

// Runner processes benchmark questions across a bounded worker pool, one
// orchestrator run per question. Workers write into per-index slots and the
// report is assembled once after all workers return, so the hot path needs
// no locks. Per-question failures are recorded, never propagated; only an
// unloadable dataset aborts the run.
type Runner struct {
	cfg    *config.Config
	system *agents.System
	logger *zap.Logger
	events chan Event
}

func NewRunner(cfg *config.Config, gen llm.Generator, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		system: agents.NewSystem(cfg, gen, logger),
		logger: logger,
		events: make(chan Event, 256),
	}
}

// Events streams progress updates for a UI. The channel is closed when Run
// returns. Events are advisory: when no one drains the channel they are
// dropped rather than stalling workers.
func (r *Runner) Events() <-chan Event {
	return r.events
}

func (r *Runner) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

// Run benchmarks the dataset under dataDir and returns the finished report.
func (r *Runner) Run(ctx context.Context, dataDir string, limit int) (*Report, error) {
	defer close(r.events)

	questions, err := Load(dataDir, limit)
	if err != nil {
		return nil, err
	}
	r.logger.Info("benchmark started",
		zap.String("data_dir", dataDir),
		zap.Int("questions", len(questions)),
		zap.Int("workers", r.cfg.Workers))

	startedAt := time.Now()
	slots := make([]QuestionReport, len(questions))
	gateways := newGatewayCache(dataDir, sqlexec.Options{
		Timeout:      r.cfg.Execution.StatementTimeout(),
		SampleValues: r.cfg.Execution.SampleValues,
	})
	defer gateways.closeAll()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, q := range questions {
		i, q := i, q
		g.Go(func() error {
			slots[i] = r.solveOne(gctx, gateways, q)
			return nil
		})
	}
	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()

	report := NewReport(slots, startedAt, time.Now())
	r.emit(Event{Type: EventRunFinished, Total: report.Total, TotalCorrect: report.Correct})
	r.logger.Info("benchmark finished",
		zap.Int("total", report.Total),
		zap.Int("correct", report.Correct),
		zap.Float64("accuracy", report.Accuracy),
		zap.Int64("duration_ms", report.DurationMS))
	return report, nil
}

// solveOne runs the full pipeline for a single question and folds every
// failure into the report entry.
func (r *Runner) solveOne(ctx context.Context, gateways *gatewayCache, q Question) QuestionReport {
	r.emit(Event{Type: EventQuestionStarted, QuestionID: q.ID, DBID: q.DBID})
	entry := QuestionReport{
		QuestionID: q.ID,
		Question:   q.Question,
		DBID:       q.DBID,
		GoldSQL:    q.GoldSQL,
		State:      agents.StateDoneExhausted,
	}

	gw, err := gateways.get(ctx, q.DBID)
	if err != nil {
		entry.FailureReason = err.Error()
		r.finish(entry)
		return entry
	}

	full, err := gw.Inspect(ctx)
	if err != nil {
		entry.FailureReason = err.Error()
		r.finish(entry)
		return entry
	}

	res := r.system.Solve(ctx, q.Question, full, gw)
	entry.PredictedSQL = res.FinalSQL
	entry.State = res.State
	entry.Iterations = res.Iterations
	entry.Turns = res.Turns
	entry.Outcomes = res.Outcomes
	entry.FailureReason = res.FailureReason

	// Evaluate even exhausted questions: the last candidate is a
	// best-effort answer and may still match gold.
	var predicted sqlexec.Outcome
	if len(res.Outcomes) > 0 {
		predicted = res.Outcomes[len(res.Outcomes)-1]
	} else {
		predicted = sqlexec.Failure(sqlexec.ErrorSyntax, "no candidate SQL was produced")
	}
	verdict := Evaluate(ctx, gw, q.GoldSQL, predicted)
	entry.ExecutionCorrect = verdict.Correct
	entry.GoldExecutionFailed = verdict.GoldFailed

	r.finish(entry)
	return entry
}

func (r *Runner) finish(entry QuestionReport) {
	r.emit(Event{
		Type:       EventQuestionFinished,
		QuestionID: entry.QuestionID,
		DBID:       entry.DBID,
		Correct:    entry.ExecutionCorrect,
		State:      string(entry.State),
		Reason:     entry.FailureReason,
	})
}

// gatewayCache opens one gateway per database id. Questions sharing a
// database reuse the same pool and its cached introspection result.
type gatewayCache struct {
	dataDir string
	opts    sqlexec.Options

	mu sync.Mutex
	m  map[string]sqlexec.Gateway
}

func newGatewayCache(dataDir string, opts sqlexec.Options) *gatewayCache {
	return &gatewayCache{dataDir: dataDir, opts: opts, m: make(map[string]sqlexec.Gateway)}
}

func (c *gatewayCache) get(ctx context.Context, dbID string) (sqlexec.Gateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gw, ok := c.m[dbID]; ok {
		return gw, nil
	}
	path, err := DatabasePath(c.dataDir, dbID)
	if err != nil {
		return nil, err
	}
	gw, err := sqlexec.OpenSQLite(ctx, path, c.opts)
	if err != nil {
		return nil, err
	}
	c.m[dbID] = gw
	return gw, nil
}

func (c *gatewayCache) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, gw := range c.m {
		gw.Close()
	}
	c.m = make(map[string]sqlexec.Gateway)
}
