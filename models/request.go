package models

import "time"

// PendingRequest is a request being timed, awaiting completion or error.
// Transient, keyed by RequestID; never persisted.
type PendingRequest struct {
	RequestID          string    `json:"request_id"`
	URL                string    `json:"url"`
	Hostname           string    `json:"hostname"`
	CurrentTabHostname string    `json:"current_tab_hostname"` // hostname of the page that originated the request
	StartTime          time.Time `json:"start_time"`
}

// FailedRequest is a slow or errored request recorded by the monitor.
// Hostname is already wildcard-normalized so it can be promoted into a rule
// directly. Exactly one of ResponseTime/Error is populated.
type FailedRequest struct {
	URL                string    `json:"url"`
	Hostname           string    `json:"hostname"`
	CurrentTabHostname string    `json:"current_tab_hostname"`
	ResponseTime       int64     `json:"response_time,omitempty"` // milliseconds
	Error              string    `json:"error,omitempty"`
	Status             int       `json:"status,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}
