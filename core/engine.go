package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"selectproxy/logger"
	"selectproxy/models"

	"github.com/elazarl/goproxy"
)

// ErrScopeUnsupported is returned when a configuration targets a browsing
// scope the engine does not maintain. The configurator treats it as a
// best-effort failure for the private scope.
var ErrScopeUnsupported = errors.New("selectproxy: browsing scope not supported by local engine")

// compiledRule pairs a rule with its hostname matcher, kept in list order so
// the first matching rule wins.
type compiledRule struct {
	rule models.ProxyRule
	re   *regexp.Regexp
}

// Engine is the local forwarding proxy playing the network-interception
// layer: it routes requests directly or through the configured upstream
// according to the active rule set, and feeds the request monitor with
// observation, completion and error events.
type Engine struct {
	mu       sync.RWMutex
	rules    []compiledRule
	upstream *url.URL

	monitor *Monitor
	server  *goproxy.ProxyHttpServer
}

func NewEngine(monitor *Monitor) *Engine {
	e := &Engine{monitor: monitor}

	proxy := goproxy.NewProxyHttpServer()
	proxy.Logger = log.New(io.Discard, "", 0)
	proxy.Tr = &http.Transport{
		Proxy: func(r *http.Request) (*url.URL, error) {
			return e.routeFor(r.URL.Hostname()), nil
		},
	}

	// CONNECT tunnels are routed per-host too, but their contents are opaque
	// to the monitor: the engine is not a MITM.
	proxy.ConnectDial = func(network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if up := e.routeFor(host); up != nil && (up.Scheme == "http" || up.Scheme == "https") {
			return proxy.NewConnectDialToProxy(up.String())(network, addr)
		}
		return net.DialTimeout(network, addr, 30*time.Second)
	}

	proxy.OnRequest().DoFunc(
		func(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
			id := strconv.FormatInt(ctx.Session, 10)
			e.monitor.ObserveRequest(r.Context(), ObservedRequest{
				RequestID:   id,
				URL:         r.URL.String(),
				TabHostname: originHostname(r),
			})
			logger.ProxyDebug("REQ %s: %s %s", id, r.Method, r.URL.String())
			return r, nil
		})

	proxy.OnResponse().DoFunc(
		func(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
			id := strconv.FormatInt(ctx.Session, 10)
			if resp == nil || ctx.Error != nil {
				code := classifyNetError(ctx.Error)
				logger.ProxyDebug("ERR %s: %s", id, code)
				e.monitor.FailRequest(id, code)
				return resp
			}
			logger.ProxyDebug("RESP %s: %d", id, resp.StatusCode)
			e.monitor.CompleteRequest(id, resp.StatusCode)
			return resp
		})

	e.server = proxy
	return e
}

// ApplyConfig installs a configuration for the regular scope. Any other
// scope is unsupported. socks4 upstreams are refused here: net/http cannot
// dial them, and refusing at apply time lets the configurator fall back to
// direct instead of failing per request.
func (e *Engine) ApplyConfig(scope Scope, cfg models.ProxyConfig) error {
	if scope != ScopeRegular {
		return ErrScopeUnsupported
	}

	if cfg.Mode == models.ModeDirect {
		e.mu.Lock()
		e.rules = nil
		e.upstream = nil
		e.mu.Unlock()
		logger.ProxyInfo("Engine configured for direct connections.")
		return nil
	}

	upstream, err := upstreamURL(cfg.Settings)
	if err != nil {
		return err
	}

	compiled := make([]compiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		re, err := PatternToRegexp(rule.Pattern)
		if err != nil {
			logger.Warn("Engine: skipping unparseable rule pattern %q: %v", rule.Pattern, err)
			continue
		}
		compiled = append(compiled, compiledRule{rule: rule, re: re})
	}

	e.mu.Lock()
	e.rules = compiled
	e.upstream = upstream
	e.mu.Unlock()
	logger.ProxyInfo("Engine configured: %d rule(s), upstream %s.", len(compiled), upstream.Redacted())
	return nil
}

// routeFor returns the upstream for hostname, or nil for a direct
// connection. Rules are tried in list order; the first match wins.
func (e *Engine) routeFor(hostname string) *url.URL {
	hostname = strings.ToLower(hostname)
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.upstream == nil {
		return nil
	}
	for _, cr := range e.rules {
		if cr.re.MatchString(hostname) {
			return e.upstream
		}
	}
	return nil
}

// ListenAndServe runs the engine on addr until ctx is done or the listener
// fails.
func (e *Engine) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: e.server}

	errCh := make(chan error, 1)
	go func() {
		logger.ProxyInfo("Local interception engine listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ProxyError("Engine shutdown: %v", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("engine listener failed: %w", err)
		}
		return nil
	}
}

// upstreamURL builds the upstream proxy URL from the saved settings.
func upstreamURL(settings models.GeneralSettings) (*url.URL, error) {
	if !settings.HasProxyServer() {
		return nil, errors.New("selectproxy: no proxy server configured")
	}

	var scheme string
	switch settings.ProxyServerScheme {
	case models.SchemeHTTP:
		scheme = "http"
	case models.SchemeHTTPS:
		scheme = "https"
	case models.SchemeSOCKS5:
		scheme = "socks5"
	case models.SchemeSOCKS4:
		return nil, errors.New("selectproxy: socks4 upstreams are not supported by the local engine")
	default:
		return nil, fmt.Errorf("selectproxy: unknown proxy scheme %q", settings.ProxyServerScheme)
	}

	u := &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(settings.ProxyServerAddress, strconv.Itoa(settings.ProxyServerPort)),
	}
	if settings.ProxyUsername != "" {
		if settings.ProxyPassword != "" {
			u.User = url.UserPassword(settings.ProxyUsername, settings.ProxyPassword)
		} else {
			u.User = url.User(settings.ProxyUsername)
		}
	}
	return u, nil
}

// originHostname derives the hostname of the page that triggered the
// request. The Referer header is the closest stand-in available to a forward
// proxy; requests without one are grouped under their own target host.
func originHostname(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Hostname() != "" {
			return strings.ToLower(u.Hostname())
		}
	}
	return strings.ToLower(r.URL.Hostname())
}

// classifyNetError maps transport errors onto the error codes the monitor
// filters on.
func classifyNetError(err error) string {
	if err == nil {
		return "net::ERR_FAILED"
	}
	if errors.Is(err, context.Canceled) {
		return "net::ERR_ABORTED"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "net::ERR_NAME_NOT_RESOLVED"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "net::ERR_CONNECTION_REFUSED"
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return "net::ERR_CONNECTION_RESET"
	}
	if errors.Is(err, syscall.ECONNABORTED) {
		return "net::ERR_CONNECTION_ABORTED"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "net::ERR_TIMED_OUT"
	}
	return "net::ERR_FAILED"
}
