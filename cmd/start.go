package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"selectproxy/config"
	"selectproxy/logger"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the interception engine and the management API together",
	Run: func(cmd *cobra.Command, args []string) {
		app := newApp()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := app.Configurator.Reconfigure(ctx); err != nil {
			logger.Error("Initial reconfigure failed: %v", err)
		}

		go func() {
			if err := app.Engine.ListenAndServe(ctx, ":"+config.AppConfig.Proxy.Port); err != nil && err != context.Canceled {
				logger.Fatal("Interception engine failed: %v", err)
			}
		}()

		go runAPIServer(app, config.AppConfig.Server.Port)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("Received %s, shutting down.", sig)
		cancel()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
