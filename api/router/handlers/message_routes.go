package handlers

import (
	"selectproxy/core"

	"github.com/go-chi/chi/v5"
)

func RegisterMessageRoutes(r chi.Router, app *core.App) {
	h := &messageHandlers{app: app}
	r.Post("/message", h.handleMessage)
}
