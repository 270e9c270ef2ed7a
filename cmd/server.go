package cmd

import (
	"context"
	"net/http"

	"selectproxy/api"
	"selectproxy/core"
	"selectproxy/logger"

	"github.com/spf13/cobra"
)

var standaloneServerPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the management API server (standalone; see 'start' for the full stack)",
	Run: func(cmd *cobra.Command, args []string) {
		app := newApp()
		if err := app.Configurator.Reconfigure(context.Background()); err != nil {
			logger.Error("Initial reconfigure failed: %v", err)
		}
		runAPIServer(app, standaloneServerPort)
	},
}

func runAPIServer(app *core.App, port string) {
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.NewRouter(app)))

	logger.Info("API server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Fatal("Could not start API server: %v", err)
	}
}

func init() {
	serverCmd.Flags().StringVarP(&standaloneServerPort, "port", "p", "8668", "Port for the API server to listen on")
	rootCmd.AddCommand(serverCmd)
}
