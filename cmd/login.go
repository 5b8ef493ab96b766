// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	"github.com/abdoukaba/Autogen-BIRD/internal/keychain"
	"github.com/abdoukaba/Autogen-BIRD/internal/llm"
	"github.com/abdoukaba/Autogen-BIRD/internal/logging"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginConfig string

// loginCmd represents the login command for storing provider credentials.
// It prompts for an API key without echoing it, verifies the key against the
// provider's model listing endpoint, and stores it in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Store and verify a provider API key",
	Long: `The login command prompts for an LLM provider API key, verifies it with a
lightweight request to the provider, and stores it securely in the OS
keychain. Later commands use the stored key automatically when neither the
config file nor OPENAI_API_KEY supplies one.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(loginConfig)
		if err != nil {
			cfg = config.Defaults()
		}

		fmt.Print("Enter API key: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading API key: %w", err)
		}
		key := strings.TrimSpace(string(raw))
		if key == "" {
			return errors.New("API key is required")
		}

		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg.Provider.APIKey = key
		client, err := llm.New(cfg.Provider, logger)
		if err != nil {
			return err
		}

		stopSpinner := startInlineSpinner("verifying API key")
		_, err = client.ListModels(ctx)
		stopSpinner()
		if err != nil {
			fmt.Println("❌ The provider rejected this API key.")
			logging.PresentProviderError(err.Error())
			return err
		}

		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system.")
			fmt.Println("   Key verified but not saved; export OPENAI_API_KEY instead.")
			return err
		}
		if err := km.SaveAPIKey(key); err != nil {
			fmt.Println("❌ Failed to save the API key securely.")
			return err
		}

		fmt.Println("✅ API key verified and saved!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginConfig, "config", "", "Path to a config file (default: XDG config dir)")
}
