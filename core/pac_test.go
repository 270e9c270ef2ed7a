package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"selectproxy/models"
)

func proxySettings() models.GeneralSettings {
	s := models.DefaultGeneralSettings()
	s.ProxyServerScheme = models.SchemeHTTP
	s.ProxyServerAddress = "1.2.3.4"
	s.ProxyServerPort = 8080
	return s
}

func TestBuildConfigScriptEmptyRulesIsAlwaysDirect(t *testing.T) {
	script := BuildConfigScript(proxySettings(), nil)
	if !strings.Contains(script, `return "DIRECT";`) {
		t.Fatalf("expected DIRECT script, got:\n%s", script)
	}
	if strings.Contains(script, "test(host)") {
		t.Errorf("direct script should carry no host conditions:\n%s", script)
	}
}

func TestBuildConfigScriptAbsentProxyServerIsDirect(t *testing.T) {
	script := BuildConfigScript(models.DefaultGeneralSettings(), []models.ProxyRule{{Pattern: "*.slow.com"}})
	if strings.Contains(script, "test(host)") {
		t.Errorf("script without a proxy server should be direct:\n%s", script)
	}
}

func TestBuildConfigScriptEmitsDirectiveAndFallback(t *testing.T) {
	script := BuildConfigScript(proxySettings(), []models.ProxyRule{{Pattern: "*.slow.com"}})

	if !strings.Contains(script, `"HTTP 1.2.3.4:8080"`) {
		t.Errorf("expected upper-cased directive in script:\n%s", script)
	}
	if !strings.Contains(script, `return "DIRECT";`) {
		t.Errorf("expected DIRECT fallback in script:\n%s", script)
	}

	re, err := PatternToRegexp("*.slow.com")
	if err != nil {
		t.Fatalf("PatternToRegexp: %v", err)
	}
	for _, host := range []string{"x.slow.com", "slow.com"} {
		if !re.MatchString(host) {
			t.Errorf("compiled pattern should match %s", host)
		}
	}
	if re.MatchString("other.com") {
		t.Error("compiled pattern should not match other.com")
	}
}

func TestBuildConfigScriptPreservesRuleOrder(t *testing.T) {
	script := BuildConfigScript(proxySettings(), []models.ProxyRule{
		{Pattern: "exact.slow.com"},
		{Pattern: "*.slow.com"},
	})
	first := strings.Index(script, `exact\.slow\.com`)
	second := strings.Index(script, `(.*\.)?slow\.com`)
	if first == -1 || second == -1 || first > second {
		t.Errorf("conditions not emitted in rule list order:\n%s", script)
	}
}

// fakeController records configurations per scope and can fail on demand.
type fakeController struct {
	applied     map[Scope][]models.ProxyConfig
	failRegular error
	failPrivate error
}

func newFakeController() *fakeController {
	return &fakeController{applied: make(map[Scope][]models.ProxyConfig)}
}

func (f *fakeController) ApplyConfig(scope Scope, cfg models.ProxyConfig) error {
	if scope == ScopeRegular && f.failRegular != nil {
		return f.failRegular
	}
	if scope == ScopePrivate && f.failPrivate != nil {
		return f.failPrivate
	}
	f.applied[scope] = append(f.applied[scope], cfg)
	return nil
}

func (f *fakeController) last(scope Scope) (models.ProxyConfig, bool) {
	cfgs := f.applied[scope]
	if len(cfgs) == 0 {
		return models.ProxyConfig{}, false
	}
	return cfgs[len(cfgs)-1], true
}

func newTestConfigurator(store *memStore, settings models.GeneralSettings, ctrl ProxyController) (*Configurator, *RuleService) {
	rules := NewRuleService(store)
	loader := func() (models.GeneralSettings, error) { return settings, nil }
	return NewConfigurator(rules, loader, ctrl), rules
}

func TestReconfigureAppliesPACScript(t *testing.T) {
	ctrl := newFakeController()
	cfg, rules := newTestConfigurator(&memStore{}, proxySettings(), ctrl)
	ctx := context.Background()

	if _, err := rules.AddRule(ctx, models.ProxyRule{Pattern: "*.slow.com"}); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if err := cfg.Reconfigure(ctx); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}

	applied, ok := ctrl.last(ScopeRegular)
	if !ok {
		t.Fatal("no configuration applied to regular scope")
	}
	if applied.Mode != models.ModePACScript {
		t.Errorf("expected pac_script mode, got %s", applied.Mode)
	}
	if len(applied.Rules) != 1 {
		t.Errorf("expected 1 compiled rule, got %d", len(applied.Rules))
	}
	if _, ok := ctrl.last(ScopePrivate); !ok {
		t.Error("expected best-effort apply to private scope")
	}
	if cfg.CurrentScript() != applied.PACScript {
		t.Error("CurrentScript does not reflect last applied configuration")
	}
}

func TestReconfigureWithNoRulesAppliesDirect(t *testing.T) {
	ctrl := newFakeController()
	cfg, _ := newTestConfigurator(&memStore{}, proxySettings(), ctrl)

	if err := cfg.Reconfigure(context.Background()); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	applied, ok := ctrl.last(ScopeRegular)
	if !ok || applied.Mode != models.ModeDirect {
		t.Errorf("expected direct mode with empty rule set, got %+v (ok=%v)", applied, ok)
	}
}

func TestPrivateScopeFailureIsBestEffort(t *testing.T) {
	ctrl := newFakeController()
	ctrl.failPrivate = ErrScopeUnsupported
	cfg, rules := newTestConfigurator(&memStore{}, proxySettings(), ctrl)
	ctx := context.Background()

	if _, err := rules.AddRule(ctx, models.ProxyRule{Pattern: "*.slow.com"}); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if err := cfg.Reconfigure(ctx); err != nil {
		t.Fatalf("private scope failure must not fail Reconfigure: %v", err)
	}
	if _, ok := ctrl.last(ScopeRegular); !ok {
		t.Error("regular scope configuration missing")
	}
}

func TestApplyFailureFallsBackToDirect(t *testing.T) {
	ctrl := newFakeController()
	applyErr := errors.New("engine rejected configuration")
	_, rules := newTestConfigurator(&memStore{}, proxySettings(), ctrl)
	ctx := context.Background()

	if _, err := rules.AddRule(ctx, models.ProxyRule{Pattern: "*.slow.com"}); err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	// Applying the generated script fails; the direct fallback succeeds.
	cfg2 := NewConfigurator(rules, func() (models.GeneralSettings, error) { return proxySettings(), nil }, controllerFunc(func(scope Scope, c models.ProxyConfig) error {
		if c.Mode == models.ModePACScript {
			return applyErr
		}
		return ctrl.ApplyConfig(scope, c)
	}))

	if err := cfg2.Reconfigure(ctx); err != nil {
		t.Fatalf("Reconfigure should succeed via direct fallback: %v", err)
	}
	applied, ok := ctrl.last(ScopeRegular)
	if !ok || applied.Mode != models.ModeDirect {
		t.Errorf("expected direct fallback, got %+v (ok=%v)", applied, ok)
	}
}

type controllerFunc func(scope Scope, cfg models.ProxyConfig) error

func (f controllerFunc) ApplyConfig(scope Scope, cfg models.ProxyConfig) error {
	return f(scope, cfg)
}
