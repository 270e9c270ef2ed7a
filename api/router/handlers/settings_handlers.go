package handlers

import (
	"encoding/json"
	"net/http"

	"selectproxy/core"
	"selectproxy/logger"
	"selectproxy/models"
)

type settingsHandlers struct {
	app *core.App
}

// getSettings handles GET /settings.
func (h *settingsHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.app.Settings()
	if err != nil {
		logger.Error("getSettings: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// putSettings handles PUT /settings: the settings document is replaced
// wholesale and the proxy configuration regenerated.
func (h *settingsHandlers) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.GeneralSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		logger.Error("putSettings: Error decoding request body: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := settings.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.app.SaveSettings(settings); err != nil {
		logger.Error("putSettings: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.app.Configurator.Reconfigure(r.Context()); err != nil {
		logger.Error("Reconfigure after settings save failed: %v", err)
	}
	respondJSON(w, http.StatusOK, settings)
}
