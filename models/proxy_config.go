package models

// ProxyMode mirrors the configuration modes the network layer accepts.
type ProxyMode string

const (
	ModeDirect    ProxyMode = "direct"
	ModePACScript ProxyMode = "pac_script"
)

// ProxyConfig is the value submitted to the network layer. For pac_script
// mode it carries both the generated script text (for consumers that evaluate
// PAC) and the structured rule set plus settings (for the in-process engine,
// which routes from the compiled rules instead).
type ProxyConfig struct {
	Mode      ProxyMode       `json:"mode"`
	PACScript string          `json:"pac_script,omitempty"`
	Rules     []ProxyRule     `json:"rules,omitempty"`
	Settings  GeneralSettings `json:"settings"`
}
