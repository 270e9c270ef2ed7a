package models

// Message actions accepted on the /message endpoint. The set is closed; the
// dispatcher rejects anything else.
const (
	ActionGetFailedRequests       = "getFailedRequests"
	ActionClearFailedRequests     = "clearFailedRequests"
	ActionAddProxyRules           = "addProxyRules"
	ActionUpdateBadge             = "updateBadge"
	ActionConfigureSelectiveProxy = "configureSelectiveProxy"
)

// GetFailedRequestsMessage asks for the failed requests recorded for a page.
type GetFailedRequestsMessage struct {
	TabHostname string `json:"tab_hostname"`
}

// ClearFailedRequestsMessage drops the failed requests recorded for a page.
type ClearFailedRequestsMessage struct {
	TabHostname string `json:"tab_hostname"`
}

// AddProxyRulesMessage promotes failing hostnames into rules ("add all").
type AddProxyRulesMessage struct {
	TabHostname string   `json:"tab_hostname"`
	Hostnames   []string `json:"hostnames"`
}

// UpdateBadgeMessage switches the badge scope to the given page.
type UpdateBadgeMessage struct {
	TabHostname string `json:"tab_hostname"`
}

// ConfigureSelectiveProxyMessage requests a configuration rebuild after a
// rule or settings mutation.
type ConfigureSelectiveProxyMessage struct{}

// FailedRequestsResponse is the reply to getFailedRequests.
type FailedRequestsResponse struct {
	TabHostname    string          `json:"tab_hostname"`
	FailedRequests []FailedRequest `json:"failed_requests"`
}

// BadgeResponse is the reply to updateBadge and GET /badge.
type BadgeResponse struct {
	TabHostname string `json:"tab_hostname"`
	Text        string `json:"text"`
	Color       string `json:"color"`
}

// OKResponse acknowledges a message that carries no payload back.
type OKResponse struct {
	OK bool `json:"ok"`
}
