// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/abdoukaba/Autogen-BIRD/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var modelsConfig string

// modelsCmd represents the models command for listing available provider
// models. It is also a quick way to confirm that the stored API key works.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the configured provider",

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(modelsConfig)
		if err != nil {
			pterm.Println(logging.PresentError("loading configuration", err))
			return err
		}
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
		if err != nil {
			return err
		}
		defer logger.Sync()

		client, err := newGenerator(cfg, logger)
		if err != nil {
			pterm.Println(logging.PresentError("", err))
			pterm.Println("   Run 'birdsql login' to store an API key, or set OPENAI_API_KEY.")
			return err
		}

		stopSpinner := startInlineSpinner("fetching models")
		names, err := client.ListModels(cmd.Context())
		stopSpinner()
		if err != nil {
			logging.PresentProviderError(err.Error())
			return err
		}

		for _, name := range names {
			pterm.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsConfig, "config", "", "Path to a config file (default: XDG config dir)")
}
