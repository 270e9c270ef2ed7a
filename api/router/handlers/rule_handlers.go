package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"selectproxy/core"
	"selectproxy/logger"
	"selectproxy/models"

	"github.com/go-chi/chi/v5"
)

type ruleHandlers struct {
	app *core.App
}

// listRules handles GET /rules.
func (h *ruleHandlers) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.app.Rules.ListRules(r.Context())
	if err != nil {
		logger.Error("listRules: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

// addRule handles POST /rules. A duplicate pattern is a silent no-op: the
// unchanged list comes back with 200 instead of 201.
func (h *ruleHandlers) addRule(w http.ResponseWriter, r *http.Request) {
	var rule models.ProxyRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		logger.Error("addRule: Error decoding request body: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	rule.Pattern = strings.TrimSpace(rule.Pattern)
	if rule.Pattern == "" {
		respondError(w, http.StatusBadRequest, "pattern is required")
		return
	}

	before, err := h.app.Rules.ListRules(r.Context())
	if err != nil {
		logger.Error("addRule: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	rules, err := h.app.Rules.AddRule(r.Context(), rule)
	if err != nil {
		logger.Error("addRule: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.reconfigure(r)

	status := http.StatusOK
	if len(rules) > len(before) {
		status = http.StatusCreated
	}
	respondJSON(w, status, rules)
}

// addRules handles POST /rules/batch.
func (h *ruleHandlers) addRules(w http.ResponseWriter, r *http.Request) {
	var incoming []models.ProxyRule
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		logger.Error("addRules: Error decoding request body: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	rules, err := h.app.Rules.AddRules(r.Context(), incoming)
	if err != nil {
		logger.Error("addRules: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.reconfigure(r)
	respondJSON(w, http.StatusOK, rules)
}

// updateRule handles PUT /rules/{ruleID}.
func (h *ruleHandlers) updateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleID")

	var patch models.ProxyRulePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		logger.Error("updateRule: Error decoding request body: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	found, err := h.app.Rules.UpdateRule(r.Context(), ruleID, patch)
	if err != nil {
		if errors.Is(err, core.ErrDuplicatePattern) {
			respondError(w, http.StatusConflict, "pattern already used by another rule")
			return
		}
		logger.Error("updateRule: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "rule not found")
		return
	}

	h.reconfigure(r)
	respondJSON(w, http.StatusOK, models.OKResponse{OK: true})
}

// deleteRule handles DELETE /rules/{ruleID}.
func (h *ruleHandlers) deleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleID")

	rules, err := h.app.Rules.DeleteRule(r.Context(), ruleID)
	if err != nil {
		logger.Error("deleteRule: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.reconfigure(r)
	respondJSON(w, http.StatusOK, rules)
}

// reconfigure regenerates the proxy configuration after a mutation. Failures
// are logged only: the rule change itself already persisted.
func (h *ruleHandlers) reconfigure(r *http.Request) {
	if err := h.app.Configurator.Reconfigure(r.Context()); err != nil {
		logger.Error("Reconfigure after rule mutation failed: %v", err)
	}
}
