package handlers

import (
	"selectproxy/core"

	"github.com/go-chi/chi/v5"
)

func RegisterMonitorRoutes(r chi.Router, app *core.App) {
	h := &monitorHandlers{app: app}
	r.Get("/failed-requests", h.getFailedRequests)
	r.Delete("/failed-requests", h.clearFailedRequests)
	r.Get("/badge", h.getBadge)
	r.Post("/reconfigure", h.reconfigure)
}
