// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdoukaba/Autogen-BIRD/internal/agents"
	"github.com/abdoukaba/Autogen-BIRD/internal/dsn"
	"github.com/abdoukaba/Autogen-BIRD/internal/logging"
	"github.com/abdoukaba/Autogen-BIRD/internal/sqlexec"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	askDB     string
	askConfig string
	askTrace  bool
)

// askCmd represents the ask command for answering a single question against
// a configured database. It runs the same agent loop as a benchmark question
// but prints the generated SQL and the result rows instead of scoring them.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one natural-language question with SQL",
	Long: `The ask command translates a single natural-language question into SQL using
the selector/decomposer/refiner agent loop, executes it against the configured
database, and prints the result rows.

The database target comes from --db, the BIRDSQL_DB or DATABASE_URL
environment variables, or the connection saved by 'birdsql connect'. SQLite
file paths and PostgreSQL DSNs are both accepted.`,
	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("question is required")
		}

		cfg, err := loadConfig(askConfig)
		if err != nil {
			pterm.Println(logging.PresentError("loading configuration", err))
			return err
		}
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
		if err != nil {
			return err
		}
		defer logger.Sync()

		gen, err := newGenerator(cfg, logger)
		if err != nil {
			pterm.Println(logging.PresentError("", err))
			pterm.Println("   Run 'birdsql login' to store an API key, or set OPENAI_API_KEY.")
			return err
		}

		target := resolveDBTarget(askDB)
		if target == "" {
			pterm.Println("⚠️  No database configured")
			pterm.Println("   Pass --db, set BIRDSQL_DB, or run: birdsql connect")
			return errors.New("no database configured")
		}
		resolved, err := dsn.Resolve(target)
		if err != nil {
			pterm.Println(logging.PresentError("resolving database target", err))
			return err
		}

		gw, err := sqlexec.OpenTarget(ctx, resolved, sqlexec.Options{
			Timeout:      cfg.Execution.StatementTimeout(),
			SampleValues: cfg.Execution.SampleValues,
		})
		if err != nil {
			pterm.Println(logging.PresentError("connecting to database", err))
			return err
		}
		defer gw.Close()

		stopSpinner := startInlineSpinner("inspecting schema")
		full, err := gw.Inspect(ctx)
		stopSpinner()
		if err != nil {
			pterm.Println(logging.PresentError("inspecting schema", err))
			return err
		}

		stopSpinner = startInlineSpinner("thinking")
		res := agents.NewSystem(cfg, gen, logger).Solve(ctx, question, full, gw)
		stopSpinner()

		if askTrace {
			printTrace(res.Turns)
		}

		if res.FinalSQL != "" {
			pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("SQL"))
			pterm.Println(res.FinalSQL)
			pterm.Println()
		}

		if res.State != agents.StateDoneSuccess {
			reason := res.FailureReason
			if reason == "" && len(res.Outcomes) > 0 && res.Outcomes[len(res.Outcomes)-1].Err != nil {
				reason = res.Outcomes[len(res.Outcomes)-1].Err.Message
			}
			pterm.Println(pterm.NewStyle(pterm.FgRed).Sprint("❌ No working query after " + fmt.Sprintf("%d", res.Iterations) + " attempt(s)"))
			if reason != "" {
				pterm.Println("   " + reason)
			}
			return errors.New("question could not be answered")
		}

		last := res.Outcomes[len(res.Outcomes)-1]
		printRows(last)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askDB, "db", "", "Database target: SQLite path or PostgreSQL DSN")
	askCmd.Flags().StringVar(&askConfig, "config", "", "Path to a config file (default: XDG config dir)")
	askCmd.Flags().BoolVar(&askTrace, "trace", false, "Print every agent prompt and response")
}

// printRows renders an execution result as a table. Values go through
// fmt.Sprint; NULL prints as an empty cell.
func printRows(out sqlexec.Outcome) {
	if len(out.Rows) == 0 {
		pterm.Println("(no rows)")
		return
	}
	data := pterm.TableData{out.Columns}
	for _, row := range out.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		data = append(data, cells)
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Println()
	pterm.Printf("%d row(s)\n", len(out.Rows))
}

// printTrace dumps the agent conversation for debugging prompts.
func printTrace(turns []agents.Turn) {
	for i, turn := range turns {
		pterm.Println(pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprintf("── turn %d: %s ──", i+1, turn.Agent))
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint(turn.Prompt))
		pterm.Println(turn.Response)
		pterm.Println()
	}
}
