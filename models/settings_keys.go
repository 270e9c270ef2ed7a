package models

// GeneralSettingsKey is the app_settings key holding the GeneralSettings JSON.
const GeneralSettingsKey = "general_settings"

// LegacyProxyRulesKey is the single key the rule set used to live under
// before chunking; migrated once at startup.
const LegacyProxyRulesKey = "proxy_rules"

// ProxyRuleChunkCountKey holds the number of rule chunks currently stored.
const ProxyRuleChunkCountKey = "proxy_rules.chunk_count"

// ProxyRuleChunkKeyFormat is the fmt pattern for individual rule chunk keys.
const ProxyRuleChunkKeyFormat = "proxy_rules.chunk.%d"
