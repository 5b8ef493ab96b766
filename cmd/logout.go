// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/abdoukaba/Autogen-BIRD/internal/keychain"

	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command for clearing stored credentials.
// It removes the provider API key and the saved database connection from the
// OS keychain.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials from the OS keychain",
	Long: `The logout command removes the provider API key and the saved database
connection from the OS keychain. Environment variables such as OPENAI_API_KEY
and DATABASE_URL are not affected.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system.")
			return err
		}
		if err := km.ClearAll(); err != nil {
			fmt.Println("❌ Failed to clear stored credentials.")
			return err
		}
		fmt.Println("✅ Stored credentials removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
