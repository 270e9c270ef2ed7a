package handlers

import (
	"selectproxy/core"

	"github.com/go-chi/chi/v5"
)

func RegisterSettingsRoutes(r chi.Router, app *core.App) {
	h := &settingsHandlers{app: app}
	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.putSettings)
}
