package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"selectproxy/core"
	"selectproxy/logger"
	"selectproxy/models"

	"github.com/tidwall/gjson"
)

type messageHandlers struct {
	app *core.App
}

// handleMessage is the UI message contract: a JSON body with an "action"
// discriminator dispatched to a typed handler. The action set is closed;
// anything else is rejected.
func (h *messageHandlers) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("handleMessage: Error reading request body: %v", err)
		respondError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	defer r.Body.Close()

	action := gjson.GetBytes(body, "action").String()
	switch action {
	case models.ActionGetFailedRequests:
		h.getFailedRequests(w, r, body)
	case models.ActionClearFailedRequests:
		h.clearFailedRequests(w, r, body)
	case models.ActionAddProxyRules:
		h.addProxyRules(w, r, body)
	case models.ActionUpdateBadge:
		h.updateBadge(w, r, body)
	case models.ActionConfigureSelectiveProxy:
		h.configureSelectiveProxy(w, r)
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", action))
	}
}

func (h *messageHandlers) getFailedRequests(w http.ResponseWriter, r *http.Request, body []byte) {
	var msg models.GetFailedRequestsMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message body: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.FailedRequestsResponse{
		TabHostname:    msg.TabHostname,
		FailedRequests: h.app.Monitor.FailedRequestsFor(msg.TabHostname),
	})
}

func (h *messageHandlers) clearFailedRequests(w http.ResponseWriter, r *http.Request, body []byte) {
	var msg models.ClearFailedRequestsMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message body: "+err.Error())
		return
	}
	h.app.Monitor.ClearFailedRequests(msg.TabHostname)
	respondJSON(w, http.StatusOK, models.OKResponse{OK: true})
}

// addProxyRules promotes failing hostnames into rules: the patterns are
// added, the matching failure entries removed, and the configuration
// regenerated.
func (h *messageHandlers) addProxyRules(w http.ResponseWriter, r *http.Request, body []byte) {
	var msg models.AddProxyRulesMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message body: "+err.Error())
		return
	}
	if len(msg.Hostnames) == 0 {
		respondError(w, http.StatusBadRequest, "hostnames is required")
		return
	}

	rules := make([]models.ProxyRule, 0, len(msg.Hostnames))
	for _, hostname := range msg.Hostnames {
		rules = append(rules, models.ProxyRule{Pattern: hostname})
	}
	if _, err := h.app.Rules.AddRules(r.Context(), rules); err != nil {
		logger.Error("addProxyRules: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	removed := h.app.Monitor.RemoveFailures(msg.TabHostname, msg.Hostnames)
	if err := h.app.Configurator.Reconfigure(r.Context()); err != nil {
		logger.Error("addProxyRules: reconfigure failed: %v", err)
	}

	logger.Info("Promoted %d hostname(s) into proxy rules for page %q (%d failure entries removed).",
		len(msg.Hostnames), msg.TabHostname, removed)
	respondJSON(w, http.StatusOK, models.OKResponse{OK: true})
}

func (h *messageHandlers) updateBadge(w http.ResponseWriter, r *http.Request, body []byte) {
	var msg models.UpdateBadgeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message body: "+err.Error())
		return
	}
	h.app.Monitor.SetActivePage(msg.TabHostname)
	page, text, color := h.app.Monitor.Badge()
	respondJSON(w, http.StatusOK, models.BadgeResponse{TabHostname: page, Text: text, Color: color})
}

func (h *messageHandlers) configureSelectiveProxy(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Configurator.Reconfigure(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.OKResponse{OK: true})
}
