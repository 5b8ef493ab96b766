// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"path/filepath"

	"github.com/abdoukaba/Autogen-BIRD/internal/bench"
	"github.com/abdoukaba/Autogen-BIRD/internal/logging"
	"github.com/abdoukaba/Autogen-BIRD/internal/xdg"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	fetchURL      string
	fetchDest     string
	fetchChecksum string
	fetchForce    bool
)

// fetchCmd represents the fetch command for downloading the BIRD dataset.
// It downloads the archive, optionally verifies its checksum, and unpacks it
// under the state directory so 'birdsql run' can use it directly.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and unpack the BIRD dataset",
	Long: `The fetch command downloads the BIRD mini-dev archive (or an alternative URL),
verifies a SHA-256 checksum when one is given, and unpacks it under the
birdsql state directory. A previously fetched copy is reused unless --force
is set.

Pass the printed path to 'birdsql run --data-dir'.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		dest := fetchDest
		if dest == "" {
			stateDir, err := xdg.StateDir()
			if err != nil {
				pterm.Println(logging.PresentError("resolving state directory", err))
				return err
			}
			dest = filepath.Join(stateDir, "datasets")
		}

		stopSpinner := startInlineSpinner("downloading dataset")
		root, err := bench.Fetch(cmd.Context(), fetchURL, dest, fetchChecksum, fetchForce)
		stopSpinner()
		if err != nil {
			pterm.Println(logging.PresentError("fetching dataset", err))
			return err
		}

		pterm.Println("✅ Dataset ready at:")
		pterm.Println("   " + root)
		pterm.Println()
		pterm.Println("Run the benchmark with:")
		pterm.Println("   birdsql run --data-dir " + root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchURL, "url", bench.DefaultDatasetURL, "Dataset archive URL")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "Directory to unpack into (default: XDG state dir)")
	fetchCmd.Flags().StringVar(&fetchChecksum, "checksum", "", "Expected SHA-256 of the archive (hex)")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "Re-download even if a copy exists")
}
