// Package session owns the portal session lifecycle.
//
// A session is the opaque PHPSESSID value the portal uses to authorize its
// private API. The package validates candidate identifiers against the
// homework list endpoint, acquires new ones through ordered strategies
// (environment token, credential login, anonymous harvest), and caches the
// current one in a Store until it expires or is invalidated.
//
// Callers never see transient failures from this package: a Store either
// hands out a session that validated when it was acquired, or reports
// ErrNoSessionAvailable.
package session
