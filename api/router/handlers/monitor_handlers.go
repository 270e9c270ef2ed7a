package handlers

import (
	"net/http"

	"selectproxy/core"
	"selectproxy/models"
)

type monitorHandlers struct {
	app *core.App
}

// getFailedRequests handles GET /failed-requests?tab_hostname=...
func (h *monitorHandlers) getFailedRequests(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab_hostname")
	if tab == "" {
		respondError(w, http.StatusBadRequest, "tab_hostname query parameter is required")
		return
	}
	respondJSON(w, http.StatusOK, models.FailedRequestsResponse{
		TabHostname:    tab,
		FailedRequests: h.app.Monitor.FailedRequestsFor(tab),
	})
}

// clearFailedRequests handles DELETE /failed-requests?tab_hostname=...
func (h *monitorHandlers) clearFailedRequests(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab_hostname")
	if tab == "" {
		respondError(w, http.StatusBadRequest, "tab_hostname query parameter is required")
		return
	}
	h.app.Monitor.ClearFailedRequests(tab)
	respondJSON(w, http.StatusOK, models.OKResponse{OK: true})
}

// getBadge handles GET /badge.
func (h *monitorHandlers) getBadge(w http.ResponseWriter, r *http.Request) {
	page, text, color := h.app.Monitor.Badge()
	respondJSON(w, http.StatusOK, models.BadgeResponse{TabHostname: page, Text: text, Color: color})
}

// reconfigure handles POST /reconfigure.
func (h *monitorHandlers) reconfigure(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Configurator.Reconfigure(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.OKResponse{OK: true})
}
