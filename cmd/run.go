// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/abdoukaba/Autogen-BIRD/internal/bench"
	"github.com/abdoukaba/Autogen-BIRD/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	runDataDir string
	runConfig  string
	runLimit   int
	runOutput  string
	runWorkers int
)

// runCmd represents the run command for executing the BIRD benchmark.
// It loads the question set, drives every question through the agent loop
// concurrently, evaluates predictions against gold SQL, and writes a results
// artifact with per-question detail.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the BIRD benchmark and report execution accuracy",
	Long: `The run command loads a BIRD-format dataset (questions plus per-question SQLite
databases), sends each question through the selector/decomposer/refiner agent
loop, executes the predicted SQL, and compares result sets against the gold
SQL. Questions are processed concurrently; progress is shown live.

A JSON results artifact with per-question conversations, outcomes, and the
aggregate accuracy is written when the run finishes.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(runConfig)
		if err != nil {
			pterm.Println(logging.PresentError("loading configuration", err))
			return err
		}
		if runWorkers > 0 {
			cfg.Workers = runWorkers
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

		// Load up front so a bad data dir fails before any provider calls,
		// and so the progress UI knows the total.
		questions, err := bench.Load(runDataDir, runLimit)
		if err != nil {
			pterm.Println(logging.PresentError("loading dataset", err))
			return err
		}

		pterm.Println()
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Dataset:   ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(runDataDir))
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Questions: ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf("%d", len(questions)))
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Model:     ") + pterm.NewStyle(pterm.FgLightBlue).Sprint(cfg.Decomposer.Model))
		pterm.Println()

		runner := bench.NewRunner(cfg, gen, logger)
		ps := bench.NewProgressState(len(questions))

		// Drain runner events into the progress state. The channel closes
		// when the run finishes.
		var drainWG sync.WaitGroup
		drainWG.Add(1)
		go func() {
			defer drainWG.Done()
			for ev := range runner.Events() {
				switch ev.Type {
				case bench.EventQuestionStarted:
					ps.Start(ev.QuestionID, ev.DBID)
				case bench.EventQuestionFinished:
					ps.Finish(ev.QuestionID, ev.Correct, ev.Reason)
				}
			}
		}()

		stopArea := startRunArea(ps)

		startTime := time.Now()
		report, err := runner.Run(ctx, runDataDir, runLimit)
		drainWG.Wait()
		stopArea()
		elapsed := time.Since(startTime).Round(time.Second)

		if err != nil {
			notifyRunFailure(elapsed, err)
			return err
		}

		if werr := report.Write(runOutput); werr != nil {
			pterm.Println(logging.PresentError("writing results", werr))
			return werr
		}

		notifyRunCompletion(elapsed, report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Path to the BIRD dataset directory (required)")
	runCmd.Flags().StringVar(&runConfig, "config", "", "Path to a config file (default: XDG config dir)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Only run the first N questions (0 = all)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "logs/results.json", "Path for the JSON results artifact")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Concurrent questions (overrides config)")
	_ = runCmd.MarkFlagRequired("data-dir")
}

// notifyRunCompletion prints the end-of-run summary box.
func notifyRunCompletion(elapsed time.Duration, report *bench.Report) {
	title := pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("Benchmark Completed")
	details := fmt.Sprintf("Duration: %s\nQuestions: %d\nCorrect: %d\nExecution accuracy: %.2f%%\n\nResults written to %s",
		elapsed, report.Total, report.Correct, report.Accuracy*100, runOutput)
	box := pterm.DefaultBox.WithTitle(title).WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).Sprint(details)
	pterm.Println(box)
}

// notifyRunFailure prints the failure box when the run could not complete.
func notifyRunFailure(elapsed time.Duration, err error) {
	title := pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Benchmark Failed")
	details := fmt.Sprintf("Duration: %s\n\n%s", elapsed, logging.PresentError("", err))
	box := pterm.DefaultBox.WithTitle(title).WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).Sprint(details)
	pterm.Println(box)
}
