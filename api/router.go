package api

import (
	"net/http"

	"selectproxy/api/router/handlers"
	"selectproxy/core"
	"selectproxy/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the HTTP router for the API.
// All registered paths are relative to the /api base path.
func NewRouter(app *core.App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	handlers.RegisterHealthRoutes(r)
	handlers.RegisterRuleRoutes(r, app)
	handlers.RegisterSettingsRoutes(r, app)
	handlers.RegisterMonitorRoutes(r, app)
	handlers.RegisterPACRoutes(r, app)
	handlers.RegisterMessageRoutes(r, app)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Error("API CATCH-ALL: Unhandled route relative to /api: %s %s", req.Method, req.URL.Path)
		http.NotFound(w, req)
	})

	return r
}
