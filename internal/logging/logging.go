// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

// New builds the process logger. An empty level means info; an empty file
// sends logs to stderr so they never mix with the progress UI on stdout.
func New(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Config, "parse log level", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	cfg.OutputPaths = []string{"stderr"}
	if file != "" {
		cfg.OutputPaths = []string{file}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Config, "build logger", err)
	}
	return logger, nil
}
