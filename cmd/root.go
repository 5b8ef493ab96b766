// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the birdsql application.
// It implements subcommands for running the BIRD text-to-SQL benchmark, asking
// ad-hoc questions against a database, and managing credentials, using the
// Cobra CLI framework. The package handles command parsing, execution, and
// provides a rich terminal UI with spinners and progress indicators.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	"github.com/abdoukaba/Autogen-BIRD/internal/keychain"
	"github.com/abdoukaba/Autogen-BIRD/internal/llm"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point for the birdsql application.
var rootCmd = &cobra.Command{
	Use:           "birdsql",
	Short:         "Multi-agent text-to-SQL benchmark runner for BIRD",
	Long: `birdsql runs natural-language questions through a selector, decomposer, and
refiner agent pipeline to produce SQL, executes the candidates against SQLite
or PostgreSQL, and scores predictions with BIRD execution accuracy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("birdsql %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
}

// loadConfig loads the config file at path, or the default location when path
// is empty. The returned config already has environment overrides applied.
func loadConfig(path string) (*config.Config, error) {
	if strings.TrimSpace(path) != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// resolveAPIKey fills in the provider API key from the OS keychain when
// neither the config file nor the environment supplied one.
func resolveAPIKey(cfg *config.Config) {
	if strings.TrimSpace(cfg.Provider.APIKey) != "" {
		return
	}
	km, err := keychain.GetManager()
	if err != nil {
		return
	}
	if key, err := km.LoadAPIKey(); err == nil {
		cfg.Provider.APIKey = key
	}
}

// newGenerator builds the provider client from config, pulling the API key
// from the keychain when needed.
func newGenerator(cfg *config.Config, logger *zap.Logger) (*llm.Client, error) {
	resolveAPIKey(cfg)
	return llm.New(cfg.Provider, logger)
}

// resolveDBTarget picks the database target for single-database commands.
// Precedence: explicit flag, BIRDSQL_DB, DATABASE_URL, then the DSN saved in
// the OS keychain. Returns "" when nothing is configured.
func resolveDBTarget(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("BIRDSQL_DB")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	km, err := keychain.GetManager()
	if err != nil {
		return ""
	}
	saved, err := km.LoadDBDSN()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(saved)
}
