package core

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"selectproxy/logger"
	"selectproxy/models"
)

// BadgeNotifier displays a short text label with a background color on the
// platform badge. An empty text clears the badge.
type BadgeNotifier interface {
	Update(text, color string)
}

// BadgeColor is the fixed background for failure counts.
const BadgeColor = "#d93025"

// pendingEvictionCutoff bounds the lifetime of a pending entry whose
// completion or error event never fires (e.g. an abandoned request). Stale
// entries are swept opportunistically on observation.
const pendingEvictionCutoff = 5 * time.Minute

// Error codes the monitor treats as transient or benign; they never produce
// a failed-request entry.
var ignoredErrorCodes = map[string]bool{
	"net::ERR_ABORTED":               true,
	"net::ERR_INTERNET_DISCONNECTED": true,
	"net::ERR_BLOCKED_BY_CLIENT":     true,
	"net::ERR_CACHE_MISS":            true,
	"net::ERR_CONNECTION_ABORTED":    true,
}

// ObservedRequest is the before-request event delivered by the network layer.
type ObservedRequest struct {
	RequestID   string
	URL         string
	TabHostname string // hostname of the page that originated the request
}

// Monitor tracks in-flight requests and records the slow and failing ones,
// grouped by the hostname of the originating page. All state is
// process-lifetime only; it is rebuilt empty on restart.
type Monitor struct {
	mu         sync.Mutex
	rules      *RuleService
	settings   SettingsLoader
	badge      BadgeNotifier
	now        func() time.Time
	pending    map[string]models.PendingRequest
	failed     map[string][]models.FailedRequest
	activePage string
}

func NewMonitor(rules *RuleService, settings SettingsLoader, badge BadgeNotifier) *Monitor {
	return &Monitor{
		rules:    rules,
		settings: settings,
		badge:    badge,
		now:      time.Now,
		pending:  make(map[string]models.PendingRequest),
		failed:   make(map[string][]models.FailedRequest),
	}
}

// ObserveRequest starts tracking a request unless its target is already
// covered by a rule or points at the local machine.
func (m *Monitor) ObserveRequest(ctx context.Context, req ObservedRequest) {
	u, err := url.Parse(req.URL)
	if err != nil {
		logger.ProxyDebug("Monitor: ignoring unparseable URL %q: %v", req.URL, err)
		return
	}
	hostname := u.Hostname()
	if hostname == "" || isLoopbackHost(hostname) {
		return
	}

	proxied, err := m.rules.IsProxied(ctx, req.URL)
	if err != nil {
		logger.ProxyError("Monitor: rule lookup failed for %s: %v", req.URL, err)
		return
	}
	if proxied {
		return
	}

	m.mu.Lock()
	m.evictStaleLocked()
	m.pending[req.RequestID] = models.PendingRequest{
		RequestID:          req.RequestID,
		URL:                req.URL,
		Hostname:           hostname,
		CurrentTabHostname: req.TabHostname,
		StartTime:          m.now(),
	}
	m.mu.Unlock()
}

// CompleteRequest resolves a pending request that finished normally. If it
// exceeded the response-time threshold it is recorded as a failure; the
// pending entry is cleared either way.
func (m *Monitor) CompleteRequest(requestID string, status int) {
	settings, err := m.settings()
	if err != nil {
		logger.ProxyError("Monitor: failed to load settings, using default threshold for %s: %v", requestID, err)
		settings = models.DefaultGeneralSettings()
	}
	threshold := time.Duration(settings.ResponseTimeThreshold) * time.Millisecond

	m.mu.Lock()
	pr, ok := m.pending[requestID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.pending, requestID)

	elapsed := m.now().Sub(pr.StartTime)
	recorded := false
	if elapsed > threshold {
		recorded = m.addFailureLocked(models.FailedRequest{
			URL:                pr.URL,
			Hostname:           NormalizeToWildcard(pr.Hostname),
			CurrentTabHostname: pr.CurrentTabHostname,
			ResponseTime:       elapsed.Milliseconds(),
			Status:             status,
			Timestamp:          m.now(),
		})
	}
	m.mu.Unlock()

	if recorded {
		logger.ProxyInfo("Slow request recorded: %s took %dms (threshold %dms, status %d)",
			pr.URL, elapsed.Milliseconds(), settings.ResponseTimeThreshold, status)
		m.updateBadge()
	}
}

// FailRequest resolves a pending request that errored. Transient error codes
// are filtered out and never recorded; everything else becomes a failure
// entry with no response time.
func (m *Monitor) FailRequest(requestID, errorCode string) {
	m.mu.Lock()
	pr, ok := m.pending[requestID]
	if ok {
		delete(m.pending, requestID)
	}
	if !ok || ignoredErrorCodes[errorCode] {
		m.mu.Unlock()
		return
	}

	recorded := m.addFailureLocked(models.FailedRequest{
		URL:                pr.URL,
		Hostname:           NormalizeToWildcard(pr.Hostname),
		CurrentTabHostname: pr.CurrentTabHostname,
		Error:              errorCode,
		Timestamp:          m.now(),
	})
	m.mu.Unlock()

	if recorded {
		logger.ProxyInfo("Failed request recorded: %s (%s)", pr.URL, errorCode)
		m.updateBadge()
	}
}

// addFailureLocked appends the entry to its page group unless the
// (page, hostname) pair is already present. Caller holds m.mu.
func (m *Monitor) addFailureLocked(fr models.FailedRequest) bool {
	group := m.failed[fr.CurrentTabHostname]
	for _, existing := range group {
		if existing.Hostname == fr.Hostname {
			return false
		}
	}
	m.failed[fr.CurrentTabHostname] = append(group, fr)
	return true
}

// evictStaleLocked drops pending entries whose completion never fired.
// Caller holds m.mu.
func (m *Monitor) evictStaleLocked() {
	cutoff := m.now().Add(-pendingEvictionCutoff)
	for id, pr := range m.pending {
		if pr.StartTime.Before(cutoff) {
			delete(m.pending, id)
		}
	}
}

// FailedRequestsFor returns the failure group for a page, insertion ordered.
func (m *Monitor) FailedRequestsFor(tabHostname string) []models.FailedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	group := m.failed[tabHostname]
	out := make([]models.FailedRequest, len(group))
	copy(out, group)
	return out
}

// ClearFailedRequests drops every failure recorded for a page.
func (m *Monitor) ClearFailedRequests(tabHostname string) {
	m.mu.Lock()
	delete(m.failed, tabHostname)
	m.mu.Unlock()
	m.updateBadge()
}

// RemoveFailures drops the failures whose (wildcard-normalized) hostname is
// in hostnames from the page's group, returning how many were removed. Used
// when failing hostnames are promoted into rules; the caller drives
// Reconfigure alongside.
func (m *Monitor) RemoveFailures(tabHostname string, hostnames []string) int {
	drop := make(map[string]bool, len(hostnames))
	for _, h := range hostnames {
		drop[h] = true
	}

	m.mu.Lock()
	group := m.failed[tabHostname]
	kept := group[:0:0]
	for _, fr := range group {
		if !drop[fr.Hostname] {
			kept = append(kept, fr)
		}
	}
	removed := len(group) - len(kept)
	if len(kept) == 0 {
		delete(m.failed, tabHostname)
	} else {
		m.failed[tabHostname] = kept
	}
	m.mu.Unlock()

	if removed > 0 {
		m.updateBadge()
	}
	return removed
}

// SetActivePage switches the badge scope to the given page hostname.
func (m *Monitor) SetActivePage(tabHostname string) {
	m.mu.Lock()
	m.activePage = tabHostname
	m.mu.Unlock()
	m.updateBadge()
}

// Badge returns the current badge text and color for the active page.
func (m *Monitor) Badge() (page, text, color string) {
	m.mu.Lock()
	page = m.activePage
	count := len(m.failed[m.activePage])
	m.mu.Unlock()

	if count == 0 {
		return page, "", ""
	}
	return page, strconv.Itoa(count), BadgeColor
}

// PendingCount reports how many requests are currently being timed.
func (m *Monitor) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Monitor) updateBadge() {
	if m.badge == nil {
		return
	}
	_, text, color := m.Badge()
	m.badge.Update(text, color)
}
