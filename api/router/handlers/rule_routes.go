package handlers

import (
	"selectproxy/core"

	"github.com/go-chi/chi/v5"
)

func RegisterRuleRoutes(r chi.Router, app *core.App) {
	h := &ruleHandlers{app: app}
	r.Get("/rules", h.listRules)
	r.Post("/rules", h.addRule)
	r.Post("/rules/batch", h.addRules)
	r.Put("/rules/{ruleID}", h.updateRule)
	r.Delete("/rules/{ruleID}", h.deleteRule)
}
