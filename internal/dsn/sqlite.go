// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"os"
	"path/filepath"
	"strings"
)

// resolveSQLitePath turns a sqlite target string into a Target.
// Accepted forms: "sqlite:///abs/path.db", "sqlite:relative.db", or a bare
// file path. A leading ~ expands to the user's home directory.
func resolveSQLitePath(target string) (*Target, error) {
	path := target
	lower := strings.ToLower(target)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		path = target[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		path = target[len("sqlite:"):]
	}
	if path == "" {
		return nil, NewParseError(target, "empty SQLite path", "sqlite:<path> needs a file path")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, NewParseError(target, "cannot expand ~ in path", "set HOME or use an absolute path")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	path = filepath.Clean(path)
	return &Target{Type: DBTypeSQLite, Path: path, Name: databaseName(path)}, nil
}

// databaseName derives the short database identifier from a file path:
// the base name with its extension removed.
func databaseName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
