package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"selectproxy/logger"
	"selectproxy/models"
)

// Scope identifies a browsing context the configuration applies to.
type Scope string

const (
	ScopeRegular Scope = "regular"
	ScopePrivate Scope = "private"
)

// ProxyController is the network layer the configurator submits to.
type ProxyController interface {
	ApplyConfig(scope Scope, cfg models.ProxyConfig) error
}

// SettingsLoader supplies the current GeneralSettings on each reconfigure.
type SettingsLoader func() (models.GeneralSettings, error)

// Configurator regenerates and applies the proxy configuration whenever the
// rule set or settings change. Reconfigure is the single mutation entry
// point; everything else is plumbing under it.
type Configurator struct {
	mu         sync.Mutex
	rules      *RuleService
	settings   SettingsLoader
	controller ProxyController
	current    models.ProxyConfig
}

func NewConfigurator(rules *RuleService, settings SettingsLoader, controller ProxyController) *Configurator {
	return &Configurator{
		rules:      rules,
		settings:   settings,
		controller: controller,
		current:    models.ProxyConfig{Mode: models.ModeDirect, PACScript: directScript},
	}
}

const directScript = `function FindProxyForURL(url, host) {
  return "DIRECT";
}
`

// BuildConfigScript synthesizes the PAC-style decision script for the given
// settings and rules. Conditions are emitted in rule list order, so the first
// matching rule wins; with no rules or no usable proxy server the script is
// an unconditional DIRECT.
func BuildConfigScript(settings models.GeneralSettings, rules []models.ProxyRule) string {
	if len(rules) == 0 || !settings.HasProxyServer() {
		return directScript
	}

	directive := fmt.Sprintf("%s %s:%d",
		strings.ToUpper(settings.ProxyServerScheme),
		settings.ProxyServerAddress,
		settings.ProxyServerPort)

	var b strings.Builder
	b.WriteString("function FindProxyForURL(url, host) {\n")
	b.WriteString("  host = host.toLowerCase();\n")
	for _, rule := range rules {
		re, err := PatternToRegexp(rule.Pattern)
		if err != nil {
			logger.Warn("Skipping unparseable rule pattern %q in config script: %v", rule.Pattern, err)
			continue
		}
		expr := strings.ReplaceAll(re.String(), "/", `\/`)
		fmt.Fprintf(&b, "  if (/%s/.test(host)) return %q;\n", expr, directive)
	}
	b.WriteString("  return \"DIRECT\";\n")
	b.WriteString("}\n")
	return b.String()
}

// Apply submits cfg to the regular browsing scope, then best-effort to the
// private scope: a private-scope failure is logged but never fails the call.
func (c *Configurator) Apply(cfg models.ProxyConfig) error {
	if err := c.controller.ApplyConfig(ScopeRegular, cfg); err != nil {
		return fmt.Errorf("failed to apply proxy configuration: %w", err)
	}
	if err := c.controller.ApplyConfig(ScopePrivate, cfg); err != nil {
		logger.Warn("Could not apply proxy configuration to private scope: %v", err)
	}

	c.mu.Lock()
	c.current = cfg
	c.mu.Unlock()
	return nil
}

// ApplyDirect submits a direct-connection directive to both scopes with the
// same best-effort policy for the private scope.
func (c *Configurator) ApplyDirect() error {
	return c.Apply(models.ProxyConfig{Mode: models.ModeDirect, PACScript: directScript})
}

// Reconfigure re-reads settings and rules and applies the appropriate
// configuration. If applying the generated configuration fails, it falls
// back to direct so the user is never stranded with a broken network setup.
func (c *Configurator) Reconfigure(ctx context.Context) error {
	settings, err := c.settings()
	if err != nil {
		logger.Error("Reconfigure: failed to load settings, falling back to direct: %v", err)
		return c.ApplyDirect()
	}

	rules, err := c.rules.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules for reconfigure: %w", err)
	}

	if len(rules) == 0 || !settings.HasProxyServer() {
		return c.ApplyDirect()
	}

	cfg := models.ProxyConfig{
		Mode:      models.ModePACScript,
		PACScript: BuildConfigScript(settings, rules),
		Rules:     rules,
		Settings:  settings,
	}
	if err := c.Apply(cfg); err != nil {
		logger.Error("Reconfigure: applying generated configuration failed, falling back to direct: %v", err)
		if derr := c.ApplyDirect(); derr != nil {
			return fmt.Errorf("failed to fall back to direct connection: %w", derr)
		}
		return nil
	}
	return nil
}

// CurrentConfig returns the last applied configuration.
func (c *Configurator) CurrentConfig() models.ProxyConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CurrentScript returns the script text of the last applied configuration.
func (c *Configurator) CurrentScript() string {
	return c.CurrentConfig().PACScript
}
