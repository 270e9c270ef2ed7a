package cmd

import (
	"context"
	"fmt"

	"selectproxy/core"
	"selectproxy/database"

	"github.com/spf13/cobra"
)

var pacCmd = &cobra.Command{
	Use:   "pac",
	Short: "Print the configuration script generated from the current rules and settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()

		settings, err := database.GetGeneralSettings()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		rules, err := app.Rules.ListRules(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		fmt.Print(core.BuildConfigScript(settings, rules))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pacCmd)
}
