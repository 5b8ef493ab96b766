// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/abdoukaba/Autogen-BIRD/internal/dsn"
	"github.com/abdoukaba/Autogen-BIRD/internal/logging"
	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
	"github.com/abdoukaba/Autogen-BIRD/internal/sqlexec"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	dbinfoDB     string
	dbinfoSchema bool
)

// dbinfoCmd represents the dbinfo command for displaying database connection
// information. It shows the configured target with credentials masked and can
// optionally introspect and print the schema.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the configured database target",
	Long: `The dbinfo command displays the currently configured database target with any
credentials masked. This helps verify which database agent queries will run
against without exposing sensitive values.

With --schema, the command connects to the database and prints a per-table
overview of columns as the agents would see it.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		target := resolveDBTarget(dbinfoDB)
		if target == "" {
			pterm.Println("⚠️  No database connection configured")
			pterm.Println("   Please run: birdsql connect")
			return nil
		}

		resolved, err := dsn.Resolve(target)
		if err != nil {
			pterm.Println(logging.PresentError("resolving database target", err))
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(string(resolved.Type) + ": " + logging.Mask(resolved.String()))
		pterm.Println()

		if !dbinfoSchema {
			pterm.Println("To update this connection, run: birdsql connect")
			pterm.Println()
			return nil
		}

		gw, err := sqlexec.OpenTarget(cmd.Context(), resolved, sqlexec.Options{SampleValues: 3})
		if err != nil {
			pterm.Println(logging.PresentError("connecting to database", err))
			return err
		}
		defer gw.Close()

		stopSpinner := startInlineSpinner("inspecting schema")
		full, err := gw.Inspect(cmd.Context())
		stopSpinner()
		if err != nil {
			pterm.Println(logging.PresentError("inspecting schema", err))
			return err
		}

		pterm.Println(schema.Format(full))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
	dbinfoCmd.Flags().StringVar(&dbinfoDB, "db", "", "Database target: SQLite path or PostgreSQL DSN")
	dbinfoCmd.Flags().BoolVar(&dbinfoSchema, "schema", false, "Introspect and print the table overview")
}
