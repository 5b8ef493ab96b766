// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agents

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	"github.com/abdoukaba/Autogen-BIRD/internal/llm"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
	"github.com/abdoukaba/Autogen-BIRD/internal/sqlexec"
)

// State names a position in the orchestration state machine.
type State string

const (
	StateSelecting   State = "selecting"
	StateDecomposing State = "decomposing"
	StateExecuting   State = "executing"
	StateRefining    State = "refining"
	// StateDoneSuccess means the final candidate executed without error.
	StateDoneSuccess State = "done_success"
	// StateDoneExhausted means the iteration budget ran out, a hard failure
	// ended the question early, or the timeout policy cut the loop short.
	StateDoneExhausted State = "done_exhausted"
)

// Done reports whether the state is terminal.
func (s State) Done() bool {
	return s == StateDoneSuccess || s == StateDoneExhausted
}

// Result is everything one question's loop produced. The final SQL is the
// candidate tied to the last recorded outcome whether it succeeded or not;
// a best-effort answer is always reported.
type Result struct {
	State    State
	FinalSQL string
	// Iterations counts executing visits, which equals len(Outcomes).
	Iterations int
	Turns      []Turn
	Outcomes   []sqlexec.Outcome
	// FailureReason is set when the question died before or between SQL
	// candidates: schema prune hard failure or provider exhaustion.
	FailureReason string
}

// System drives one question through selecting, decomposing, and the bounded
// execute-and-refine cycle. It owns the retry policy and termination: the
// loop visits executing at most MaxIterations times, each visit records
// exactly one outcome, and the attempt count only grows, so the loop always
// terminates no matter what the agents emit.
type System struct {
	cfg        *config.Config
	selector   *Selector
	decomposer *Decomposer
	refiner    *Refiner
	logger     *zap.Logger
}

func NewSystem(cfg *config.Config, gen llm.Generator, logger *zap.Logger) *System {
	return &System{
		cfg:        cfg,
		selector:   NewSelector(gen, cfg.Selector, logger),
		decomposer: NewDecomposer(gen, cfg.Decomposer, logger),
		refiner:    NewRefiner(gen, cfg.Refiner, logger),
		logger:     logger,
	}
}

// Solve runs the full loop for one question. It never returns an error:
// failures are folded into the result so a run always gets one entry per
// question. Stages within a question are strictly sequential; each stage's
// input is the prior stage's output.
func (s *System) Solve(ctx context.Context, question string, full *schema.Schema, gw sqlexec.Gateway) *Result {
	res := &Result{State: StateSelecting}

	pruned, turn, err := s.selector.Select(ctx, question, full)
	res.Turns = append(res.Turns, turn)
	if err != nil {
		return s.fail(res, "selector", err)
	}

	res.State = StateDecomposing
	sql, turn, err := s.decomposer.Decompose(ctx, question, pruned)
	res.Turns = append(res.Turns, turn)
	if err != nil {
		return s.fail(res, "decomposer", err)
	}

	var attempts []Attempt
	for {
		res.State = StateExecuting
		res.FinalSQL = sql

		var out sqlexec.Outcome
		if strings.TrimSpace(sql) == "" {
			// Empty sentinel from a failed extraction. Burning a database
			// round-trip on it tells the refiner nothing.
			out = sqlexec.Failure(sqlexec.ErrorSyntax, "no SQL statement could be extracted from the agent response")
		} else {
			out = gw.Query(ctx, sql)
		}
		res.Outcomes = append(res.Outcomes, out)
		res.Iterations++

		if out.OK() {
			res.State = StateDoneSuccess
			s.logger.Debug("question solved",
				zap.String("question", question),
				zap.Int("iterations", res.Iterations))
			return res
		}
		if res.Iterations >= s.cfg.MaxIterations {
			res.State = StateDoneExhausted
			return res
		}
		if out.Err.Kind == sqlexec.ErrorTimeout && !s.cfg.Execution.RefineOnTimeout {
			res.State = StateDoneExhausted
			res.FailureReason = "query timed out and refine_on_timeout is disabled"
			return res
		}

		res.State = StateRefining
		attempts = append(attempts, Attempt{SQL: sql, ErrMessage: out.Err.Message})
		sql, turn, err = s.refiner.Refine(ctx, question, pruned, attempts)
		res.Turns = append(res.Turns, turn)
		if err != nil {
			return s.fail(res, "refiner", err)
		}
	}
}

func (s *System) fail(res *Result, stage string, err error) *Result {
	s.logger.Warn("stage failed", zap.String("stage", stage), zap.Error(err))
	res.State = StateDoneExhausted
	res.FailureReason = stage + ": " + err.Error()
	return res
}
