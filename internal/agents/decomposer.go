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

// Decomposer turns a question plus pruned schema into a SQL candidate.
type Decomposer struct {
	gen    llm.Generator
	cfg    config.AgentConfig
	logger *zap.Logger
}

func NewDecomposer(gen llm.Generator, cfg config.AgentConfig, logger *zap.Logger) *Decomposer {
	return &Decomposer{gen: gen, cfg: cfg, logger: logger}
}

// Decompose returns the extracted SQL and the recorded turn. When no SQL can
// be extracted the candidate is the empty sentinel; the orchestrator turns
// that into a syntax-kind outcome without touching the database. Only a
// provider failure is an error.
func (d *Decomposer) Decompose(ctx context.Context, question string, pruned *schema.Schema) (string, Turn, error) {
	prompt := decomposerUserPrompt(question, pruned)
	resp, err := d.gen.Generate(ctx, llm.Request{
		Model:       d.cfg.Model,
		Temperature: d.cfg.Temperature,
		System:      decomposerSystemPrompt,
		User:        prompt,
	})
	turn := Turn{Agent: "decomposer", Prompt: prompt, Response: resp}
	if err != nil {
		return "", turn, err
	}

	sql, ok := ExtractSQL(resp)
	if !ok {
		d.logger.Warn("no SQL in decomposer response", zap.String("question", question))
		return "", turn, nil
	}
	turn.SQL = sql
	return sql, turn, nil
}
