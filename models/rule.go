package models

// ProxyRule is a single user-authored routing rule. Pattern is either an
// exact hostname ("example.com") or a wildcard-prefixed domain
// ("*.example.com", covering the base domain and all subdomains).
type ProxyRule struct {
	ID      string `json:"id" readOnly:"true"`
	Pattern string `json:"pattern" example:"*.example.com" binding:"required"`
}

// ProxyRulePatch carries the mutable fields of a rule for updates. The rule
// ID is immutable; a nil field leaves the current value untouched.
type ProxyRulePatch struct {
	Pattern *string `json:"pattern,omitempty"`
}
