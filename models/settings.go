package models

import "fmt"

// Supported upstream proxy schemes.
const (
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
	SchemeSOCKS4 = "socks4"
	SchemeSOCKS5 = "socks5"
)

// GeneralSettings is the singleton user configuration, stored wholesale under
// GeneralSettingsKey and overwritten on every save.
type GeneralSettings struct {
	ResponseTimeThreshold int    `json:"response_time_threshold" example:"2000"` // milliseconds
	ProxyServerAddress    string `json:"proxy_server_address" example:"1.2.3.4"`
	ProxyServerPort       int    `json:"proxy_server_port" example:"8080"`
	ProxyServerScheme     string `json:"proxy_server_scheme" example:"http" enum:"http,https,socks4,socks5"`
	ProxyUsername         string `json:"proxy_username,omitempty"`
	ProxyPassword         string `json:"proxy_password,omitempty"`
}

// DefaultGeneralSettings returns the settings used before the user has saved
// anything. No proxy server is configured, so the configurator applies a
// direct connection.
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		ResponseTimeThreshold: 2000,
		ProxyServerScheme:     SchemeHTTP,
	}
}

// HasProxyServer reports whether the settings describe a usable upstream.
func (s GeneralSettings) HasProxyServer() bool {
	return s.ProxyServerAddress != "" && s.ProxyServerPort > 0
}

// Validate checks the fields a save must satisfy.
func (s GeneralSettings) Validate() error {
	if s.ResponseTimeThreshold <= 0 {
		return fmt.Errorf("response_time_threshold must be positive, got %d", s.ResponseTimeThreshold)
	}
	switch s.ProxyServerScheme {
	case SchemeHTTP, SchemeHTTPS, SchemeSOCKS4, SchemeSOCKS5:
	default:
		return fmt.Errorf("unsupported proxy_server_scheme %q", s.ProxyServerScheme)
	}
	if s.ProxyServerPort < 0 || s.ProxyServerPort > 65535 {
		return fmt.Errorf("proxy_server_port out of range: %d", s.ProxyServerPort)
	}
	return nil
}
