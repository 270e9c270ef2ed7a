package core

import "selectproxy/models"

// SettingsSaver persists the singleton settings wholesale.
type SettingsSaver func(models.GeneralSettings) error

// App bundles the service objects making up the selective proxy: rule
// service, configurator, request monitor and local engine. Constructed once
// at process start; all state lives on these objects, not at package level.
type App struct {
	Rules        *RuleService
	Configurator *Configurator
	Monitor      *Monitor
	Engine       *Engine
	Settings     SettingsLoader
	SaveSettings SettingsSaver
}

// NewApp wires the services together: the engine plays the network layer for
// the configurator and feeds the monitor with request lifecycle events.
func NewApp(store RuleStore, loadSettings SettingsLoader, saveSettings SettingsSaver, badge BadgeNotifier) *App {
	rules := NewRuleService(store)
	monitor := NewMonitor(rules, loadSettings, badge)
	engine := NewEngine(monitor)
	configurator := NewConfigurator(rules, loadSettings, engine)

	return &App{
		Rules:        rules,
		Configurator: configurator,
		Monitor:      monitor,
		Engine:       engine,
		Settings:     loadSettings,
		SaveSettings: saveSettings,
	}
}
