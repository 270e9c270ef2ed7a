package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"selectproxy/models"
)

// fakeBadge records badge updates.
type fakeBadge struct {
	mu      sync.Mutex
	text    string
	color   string
	updates int
}

func (b *fakeBadge) Update(text, color string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.color = color
	b.updates++
}

func (b *fakeBadge) current() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.color
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestMonitor(t *testing.T, threshold int) (*Monitor, *RuleService, *fakeBadge, *fakeClock) {
	t.Helper()
	rules := NewRuleService(&memStore{})
	badge := &fakeBadge{}
	clock := newFakeClock()
	loader := func() (models.GeneralSettings, error) {
		s := models.DefaultGeneralSettings()
		s.ResponseTimeThreshold = threshold
		return s, nil
	}
	m := NewMonitor(rules, loader, badge)
	m.now = clock.Now
	return m, rules, badge, clock
}

func TestSlowRequestIsRecordedAndBadgeUpdated(t *testing.T) {
	m, _, badge, clock := newTestMonitor(t, 100)
	ctx := context.Background()

	m.SetActivePage("news.site.com")
	m.ObserveRequest(ctx, ObservedRequest{
		RequestID:   "1",
		URL:         "https://slow.example.com/asset.js",
		TabHostname: "news.site.com",
	})
	clock.Advance(250 * time.Millisecond)
	m.CompleteRequest("1", 200)

	failed := m.FailedRequestsFor("news.site.com")
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed request, got %d", len(failed))
	}
	fr := failed[0]
	if fr.Hostname != "*.example.com" {
		t.Errorf("hostname not wildcard-normalized: %q", fr.Hostname)
	}
	if fr.ResponseTime != 250 {
		t.Errorf("response time = %d, want 250", fr.ResponseTime)
	}
	if fr.Status != 200 {
		t.Errorf("status = %d, want 200", fr.Status)
	}
	if fr.Error != "" {
		t.Errorf("unexpected error field: %q", fr.Error)
	}

	if text, color := badge.current(); text != "1" || color != BadgeColor {
		t.Errorf("badge = (%q, %q), want (\"1\", %q)", text, color, BadgeColor)
	}
	if m.PendingCount() != 0 {
		t.Errorf("pending entry not cleared: %d", m.PendingCount())
	}
}

func TestFastRequestIsNotRecorded(t *testing.T) {
	m, _, _, clock := newTestMonitor(t, 100)
	ctx := context.Background()

	m.ObserveRequest(ctx, ObservedRequest{RequestID: "1", URL: "https://fast.example.com/", TabHostname: "page.com"})
	clock.Advance(50 * time.Millisecond)
	m.CompleteRequest("1", 200)

	if got := m.FailedRequestsFor("page.com"); len(got) != 0 {
		t.Errorf("fast request recorded as failure: %+v", got)
	}
	if m.PendingCount() != 0 {
		t.Errorf("pending entry not cleared: %d", m.PendingCount())
	}
}

func TestProxiedAndLoopbackTargetsAreNotTracked(t *testing.T) {
	m, rules, _, _ := newTestMonitor(t, 100)
	ctx := context.Background()

	if _, err := rules.AddRule(ctx, models.ProxyRule{Pattern: "*.example.com"}); err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	m.ObserveRequest(ctx, ObservedRequest{RequestID: "1", URL: "https://slow.example.com/", TabHostname: "page.com"})
	m.ObserveRequest(ctx, ObservedRequest{RequestID: "2", URL: "http://localhost:8080/", TabHostname: "page.com"})
	m.ObserveRequest(ctx, ObservedRequest{RequestID: "3", URL: "http://127.0.0.1/", TabHostname: "page.com"})

	if m.PendingCount() != 0 {
		t.Errorf("expected no tracked requests, got %d pending", m.PendingCount())
	}
}

func TestIgnoredErrorCodesAreNeverRecorded(t *testing.T) {
	m, _, _, _ := newTestMonitor(t, 100)
	ctx := context.Background()

	ignored := []string{
		"net::ERR_ABORTED",
		"net::ERR_INTERNET_DISCONNECTED",
		"net::ERR_BLOCKED_BY_CLIENT",
		"net::ERR_CACHE_MISS",
		"net::ERR_CONNECTION_ABORTED",
	}
	for i, code := range ignored {
		id := string(rune('a' + i))
		m.ObserveRequest(ctx, ObservedRequest{RequestID: id, URL: "https://x.example.com/", TabHostname: "page.com"})
		m.FailRequest(id, code)
	}

	if got := m.FailedRequestsFor("page.com"); len(got) != 0 {
		t.Errorf("ignored error codes produced failures: %+v", got)
	}
	if m.PendingCount() != 0 {
		t.Errorf("pending entries not cleared: %d", m.PendingCount())
	}
}

func TestGenuineErrorIsRecordedWithoutResponseTime(t *testing.T) {
	m, _, _, _ := newTestMonitor(t, 100)
	ctx := context.Background()

	m.ObserveRequest(ctx, ObservedRequest{RequestID: "1", URL: "https://down.example.com/", TabHostname: "page.com"})
	m.FailRequest("1", "net::ERR_CONNECTION_REFUSED")

	failed := m.FailedRequestsFor("page.com")
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed request, got %d", len(failed))
	}
	if failed[0].Error != "net::ERR_CONNECTION_REFUSED" {
		t.Errorf("error = %q", failed[0].Error)
	}
	if failed[0].ResponseTime != 0 {
		t.Errorf("errored request should carry no response time, got %d", failed[0].ResponseTime)
	}
}

func TestFailuresAreDedupedPerPageAndHostname(t *testing.T) {
	m, _, _, clock := newTestMonitor(t, 100)
	ctx := context.Background()

	for i, id := range []string{"1", "2"} {
		m.ObserveRequest(ctx, ObservedRequest{
			RequestID:   id,
			URL:         "https://slow.example.com/asset" + id,
			TabHostname: "page.com",
		})
		clock.Advance(time.Duration(200+i) * time.Millisecond)
		m.CompleteRequest(id, 200)
	}

	if got := m.FailedRequestsFor("page.com"); len(got) != 1 {
		t.Errorf("expected dedup to a single entry, got %d", len(got))
	}
}

func TestPromotionRemovesFailuresAndEnablesIsProxied(t *testing.T) {
	m, rules, badge, clock := newTestMonitor(t, 100)
	ctx := context.Background()

	m.SetActivePage("news.site.com")
	m.ObserveRequest(ctx, ObservedRequest{RequestID: "1", URL: "https://slow.example.com/x", TabHostname: "news.site.com"})
	clock.Advance(300 * time.Millisecond)
	m.CompleteRequest("1", 200)

	failed := m.FailedRequestsFor("news.site.com")
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed request, got %d", len(failed))
	}

	// Promote: add the rule, then remove the failure entry.
	if _, err := rules.AddRule(ctx, models.ProxyRule{Pattern: failed[0].Hostname}); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if removed := m.RemoveFailures("news.site.com", []string{failed[0].Hostname}); removed != 1 {
		t.Errorf("RemoveFailures removed %d, want 1", removed)
	}

	if got := m.FailedRequestsFor("news.site.com"); len(got) != 0 {
		t.Errorf("failure entry still present after promotion: %+v", got)
	}
	proxied, err := rules.IsProxied(ctx, "https://slow.example.com/x")
	if err != nil {
		t.Fatalf("IsProxied: %v", err)
	}
	if !proxied {
		t.Error("promoted hostname should report as proxied")
	}
	if text, _ := badge.current(); text != "" {
		t.Errorf("badge not cleared after promotion: %q", text)
	}
}

func TestStalePendingEntriesAreEvicted(t *testing.T) {
	m, _, _, clock := newTestMonitor(t, 100)
	ctx := context.Background()

	m.ObserveRequest(ctx, ObservedRequest{RequestID: "old", URL: "https://a.example.com/", TabHostname: "page.com"})
	clock.Advance(pendingEvictionCutoff + time.Minute)
	m.ObserveRequest(ctx, ObservedRequest{RequestID: "new", URL: "https://b.example.com/", TabHostname: "page.com"})

	if m.PendingCount() != 1 {
		t.Errorf("stale pending entry not evicted: %d pending", m.PendingCount())
	}
}
