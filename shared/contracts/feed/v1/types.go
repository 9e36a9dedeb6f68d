package v1

import "time"

// SessionPayload accompanies session.acquired and session.invalidated.
// The session identifier itself never travels on the feed.
type SessionPayload struct {
	Origin      string    `json:"origin"`
	Fingerprint string    `json:"fingerprint"`
	ExpiresAt   time.Time `json:"expires_at"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
}

// SyncPayload accompanies sync.completed and sync.failed.
type SyncPayload struct {
	RunID      string `json:"run_id"`
	NewItems   int    `json:"new_items"`
	TotalItems int    `json:"total_items"`
	Saved      bool   `json:"saved"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// ErrorPayload reports a failed upstream execution.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}
