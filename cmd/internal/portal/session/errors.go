package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentialsConfigured is returned by a strategy that has nothing to try.
	ErrNoCredentialsConfigured = errors.New("no credentials configured")

	// ErrValidationFailed is returned when the portal rejects a candidate session identifier.
	ErrValidationFailed = errors.New("session validation failed")

	// ErrLoginRejected is returned when the login endpoint refuses the configured credentials.
	ErrLoginRejected = errors.New("login rejected")

	// ErrNoSessionCookie is returned when an upstream response carried no session cookie.
	ErrNoSessionCookie = errors.New("no session cookie")

	// ErrMalformedResponse is returned when an upstream response is not the JSON shape expected.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrNoSessionAvailable is returned when every acquisition strategy failed.
	ErrNoSessionAvailable = errors.New("no session available")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// StrategyError records why a single acquisition strategy did not produce a session.
type StrategyError struct {
	Strategy Origin
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s strategy: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }
