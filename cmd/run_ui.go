// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abdoukaba/Autogen-BIRD/internal/bench"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

var brailleFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// startRunArea starts the live progress display for a benchmark run.
// It hides the cursor, creates a pterm area, and redraws a snapshot of the
// progress state on every tick. The returned function stops the animation,
// removes the area, and shows the cursor again.
func startRunArea(ps *bench.ProgressState) func() {
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return func() {}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		frame := 0
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				area.Update(renderRunProgress(ps, brailleFrames[frame%len(brailleFrames)]))
				frame++
			}
		}
	}()

	return func() {
		close(stop)
		wg.Wait()
		area.Stop()
		cursor.Show()
	}
}

// renderRunProgress draws the header line plus one line per in-flight
// question. Finished questions only move the counters; listing them all
// would scroll the area off screen on large runs.
func renderRunProgress(ps *bench.ProgressState, frame string) string {
	rows, done, correct, total := ps.Snapshot()

	var b strings.Builder
	header := fmt.Sprintf("%s Running BIRD benchmark  %d/%d done, %d correct", frame, done, total, correct)
	b.WriteString(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint(header))
	b.WriteString("\n")

	for _, row := range rows {
		if !row.Running {
			continue
		}
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprintf("  → #%d %s\n", row.ID, row.DB))
	}
	return b.String()
}

// startInlineSpinner starts a simple single-line spinner for short waits.
// The returned function stops the spinner and clears the line.
func startInlineSpinner(text string) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		frames := []string{"|", "/", "-", "\\"}
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				fmt.Printf("\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Printf("\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}
