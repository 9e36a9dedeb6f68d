package session

import (
	"strings"
	"time"
)

// Origin identifies the strategy that produced a session.
type Origin string

const (
	// OriginEnv is an externally supplied identifier (PHPSESSID env var).
	OriginEnv Origin = "env"
	// OriginLogin is an identifier obtained through credential login.
	OriginLogin Origin = "login"
	// OriginHarvest is an identifier picked up from a public page.
	OriginHarvest Origin = "harvest"
)

// Session is a validated portal session identifier with its local expiry.
//
// The zero value means "no session".
type Session struct {
	ID        string
	ExpiresAt time.Time
	Origin    Origin
}

// IsZero reports whether s holds no identifier.
func (s Session) IsZero() bool { return s.ID == "" }

// Live reports whether s holds an identifier that has not reached its expiry at now.
func (s Session) Live(now time.Time) bool {
	return s.ID != "" && now.Before(s.ExpiresAt)
}

// Credentials are the optional portal login credentials.
type Credentials struct {
	Username string
	Password string
}

// Configured reports whether both username and password are present.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

// AttemptResult describes one strategy run inside a single acquisition.
type AttemptResult struct {
	Strategy Origin
	Session  Session
	Err      error
	Duration time.Duration
}

// Success reports whether the attempt produced a session.
func (r AttemptResult) Success() bool {
	return r.Err == nil && !r.Session.IsZero()
}
