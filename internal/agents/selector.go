// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package agents implements the three-agent text-to-SQL pipeline: a selector
// that prunes the schema to the question-relevant subset, a decomposer that
// synthesizes a SQL candidate with chain-of-thought reasoning, and a refiner
// that repairs failing SQL from the engine's error message. The System type
// drives them through a bounded execute-and-repair loop.
//
// Each wrapper is a thin prompt/parse shim over a Generator; every exchange
// is recorded as an immutable Turn so a run's full reasoning trail lands in
// the report.
package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
	"github.com/abdoukaba/Autogen-BIRD/internal/llm"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
)

// Turn is one recorded agent exchange. The raw response doubles as the
// reasoning trace; it is never re-parsed for control flow.
type Turn struct {
	Agent    string `json:"agent"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	// SQL is the extracted candidate for decomposer/refiner turns. Empty
	// when extraction failed or for selector turns.
	SQL string `json:"sql,omitempty"`
}

// Selector prunes the full schema to the subset relevant to one question.
type Selector struct {
	gen    llm.Generator
	cfg    config.SelectorConfig
	logger *zap.Logger
}

func NewSelector(gen llm.Generator, cfg config.SelectorConfig, logger *zap.Logger) *Selector {
	return &Selector{gen: gen, cfg: cfg, logger: logger}
}

// Select asks the agent for a keep set and applies a strict prune. When the
// response parses to an empty or structurally invalid set, the configured
// fallback decides: full_schema keeps the question runnable on the unpruned
// schema, fail surfaces a hard invalid_prune error. A provider failure is
// returned as-is; there is no schema to fall back to the question with.
func (s *Selector) Select(ctx context.Context, question string, full *schema.Schema) (*schema.Schema, Turn, error) {
	prompt := selectorUserPrompt(question, full)
	resp, err := s.gen.Generate(ctx, llm.Request{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		System:      selectorSystemPrompt,
		User:        prompt,
	})
	turn := Turn{Agent: "selector", Prompt: prompt, Response: resp}
	if err != nil {
		return nil, turn, err
	}

	keep, ok := ExtractKeep(resp)
	if !ok {
		return s.fallback(turn, full, apperrors.New(apperrors.InvalidPrune, "selector response is not a keep set"))
	}

	refs := make([]schema.ColumnRef, 0, len(keep))
	for _, t := range keep {
		if len(t.Columns) == 0 {
			refs = append(refs, schema.ColumnRef{Table: t.Name})
			continue
		}
		for _, c := range t.Columns {
			refs = append(refs, schema.ColumnRef{Table: t.Name, Column: c})
		}
	}

	pruned, err := full.Prune(refs)
	if err != nil {
		return s.fallback(turn, full, err)
	}

	s.logger.Debug("schema pruned",
		zap.String("database", full.Name),
		zap.Int("tables_before", len(full.Tables)),
		zap.Int("tables_after", len(pruned.Tables)))
	return pruned, turn, nil
}

func (s *Selector) fallback(turn Turn, full *schema.Schema, cause error) (*schema.Schema, Turn, error) {
	if s.cfg.Fallback == config.FallbackFail {
		return nil, turn, cause
	}
	s.logger.Warn("selector output unusable, keeping full schema",
		zap.String("database", full.Name),
		zap.Error(cause))
	return full, turn, nil
}
