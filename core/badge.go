package core

import "selectproxy/logger"

// LogBadge is the default badge collaborator: it writes badge changes to the
// application log. A real platform badge would replace it at wiring time.
type LogBadge struct{}

func (LogBadge) Update(text, color string) {
	if text == "" {
		logger.Debug("Badge cleared.")
		return
	}
	logger.Info("Badge updated: %s (color %s)", text, color)
}
