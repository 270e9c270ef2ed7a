package cmd

import (
	"context"

	"selectproxy/logger"

	"github.com/spf13/cobra"
)

var standaloneProxyPort string

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Starts the local interception engine (standalone; see 'start' for the full stack)",
	Run: func(cmd *cobra.Command, args []string) {
		app := newApp()
		ctx := context.Background()
		if err := app.Configurator.Reconfigure(ctx); err != nil {
			logger.Error("Initial reconfigure failed: %v", err)
		}
		if err := app.Engine.ListenAndServe(ctx, ":"+standaloneProxyPort); err != nil {
			logger.Fatal("Interception engine failed: %v", err)
		}
	},
}

func init() {
	proxyCmd.Flags().StringVarP(&standaloneProxyPort, "port", "p", "8667", "Port for the interception engine to listen on")
	rootCmd.AddCommand(proxyCmd)
}
