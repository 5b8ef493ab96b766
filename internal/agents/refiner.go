// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	"github.com/abdoukaba/Autogen-BIRD/internal/llm"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
)

// Attempt is one failed execution: the candidate SQL and the engine's error
// message verbatim.
type Attempt struct {
	SQL        string
	ErrMessage string
}

// Refiner repairs failing SQL. It is stateless across calls: by default each
// refinement sees only the immediately prior SQL and error, which keeps the
// prompt size independent of how many attempts preceded it. The history flag
// embeds all prior attempts instead.
type Refiner struct {
	gen    llm.Generator
	cfg    config.RefinerConfig
	logger *zap.Logger
}

func NewRefiner(gen llm.Generator, cfg config.RefinerConfig, logger *zap.Logger) *Refiner {
	return &Refiner{gen: gen, cfg: cfg, logger: logger}
}

// Refine produces a repaired candidate from the failed attempts. Extraction
// failure yields the empty sentinel, same as the decomposer.
func (r *Refiner) Refine(ctx context.Context, question string, pruned *schema.Schema, attempts []Attempt) (string, Turn, error) {
	prompt := refinerUserPrompt(question, pruned, attempts, r.cfg.History)
	resp, err := r.gen.Generate(ctx, llm.Request{
		Model:       r.cfg.Model,
		Temperature: r.cfg.Temperature,
		System:      refinerSystemPrompt,
		User:        prompt,
	})
	turn := Turn{Agent: "refiner", Prompt: prompt, Response: resp}
	if err != nil {
		return "", turn, err
	}

	sql, ok := ExtractSQL(resp)
	if !ok {
		r.logger.Warn("no SQL in refiner response", zap.String("question", question))
		return "", turn, nil
	}
	turn.SQL = sql
	return sql, turn, nil
}
