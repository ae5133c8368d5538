// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "supabridge",
	Short: "SupaBridge is a server-side authentication gateway for Supabase Auth",
	Long: `SupaBridge is a server-side authentication gateway that fronts Supabase Auth
with session-cookie sign-in, social login, route guarding and a profile store.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
