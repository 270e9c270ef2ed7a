package handlers

import (
	"net/http"

	"selectproxy/core"
	"selectproxy/logger"

	"github.com/go-chi/chi/v5"
)

// RegisterPACRoutes serves the currently applied configuration script so
// external consumers (a browser's auto-config URL, for instance) can pick it
// up directly.
func RegisterPACRoutes(r chi.Router, app *core.App) {
	r.Get("/proxy.pac", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/x-ns-proxy-autoconfig")
		if _, err := w.Write([]byte(app.Configurator.CurrentScript())); err != nil {
			logger.Error("Error writing PAC response: %v", err)
		}
	})
}
