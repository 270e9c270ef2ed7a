package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"selectproxy/logger"
	"selectproxy/models"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the proxy rule set",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all proxy rules in insertion order",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		rules, err := app.Rules.ListRules(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}
		if len(rules) == 0 {
			fmt.Println("No proxy rules defined.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPATTERN")
		for _, r := range rules {
			fmt.Fprintf(w, "%s\t%s\n", r.ID, r.Pattern)
		}
		return w.Flush()
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <pattern> [pattern...]",
	Short: "Add one or more rule patterns (duplicates are skipped silently)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		ctx := context.Background()

		incoming := make([]models.ProxyRule, 0, len(args))
		for _, pattern := range args {
			incoming = append(incoming, models.ProxyRule{Pattern: pattern})
		}
		rules, err := app.Rules.AddRules(ctx, incoming)
		if err != nil {
			return fmt.Errorf("failed to add rules: %w", err)
		}
		if err := app.Configurator.Reconfigure(ctx); err != nil {
			logger.Error("Reconfigure after rule add failed: %v", err)
		}
		fmt.Printf("Rule set now holds %d rule(s).\n", len(rules))
		return nil
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a rule by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		ctx := context.Background()

		rules, err := app.Rules.DeleteRule(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to delete rule: %w", err)
		}
		if err := app.Configurator.Reconfigure(ctx); err != nil {
			logger.Error("Reconfigure after rule delete failed: %v", err)
		}
		fmt.Printf("Rule set now holds %d rule(s).\n", len(rules))
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rootCmd.AddCommand(rulesCmd)
}
