package token

import (
	"encoding/hex"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// KeyEnv is the env var name for the fingerprint key.
	// #nosec G101 -- not a credential; it's an environment variable name.
	KeyEnv = "HOMEWORK_TOKEN_FINGERPRINT_KEY"

	// MinKeyBytes is the shortest key accepted under an enforcing policy.
	MinKeyBytes = 16

	fingerprintBytes = 8
)

// Fingerprint returns a short hex digest of tok for logs.
// An empty token yields "".
func Fingerprint(tok string) string {
	key := strings.TrimSpace(os.Getenv(KeyEnv))
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	return FingerprintWithKey(tok, []byte(key))
}

// FingerprintWithKey returns a short BLAKE2b digest of tok keyed with key.
// A nil or empty key produces an unkeyed digest.
func FingerprintWithKey(tok string, key []byte) string {
	if tok == "" {
		return ""
	}
	h, err := blake2b.New(fingerprintBytes, key)
	if err != nil {
		// Only reachable with a key longer than 64 bytes.
		h, _ = blake2b.New(fingerprintBytes, nil)
	}
	_, _ = h.Write([]byte(tok))
	return hex.EncodeToString(h.Sum(nil))
}

// KeyFromEnv returns the configured key bytes (trimmed), enforcing length bounds.
// If the env var is missing/blank -> ErrKeyMissing.
func KeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(KeyEnv))
	if raw == "" {
		return nil, ErrKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrKeyTooShort
	}
	if len(b) > blake2b.Size {
		return nil, ErrKeyTooLong
	}
	return b, nil
}

// KeyConfigured reports whether the env key is present (non-empty after trim).
// It does not enforce length. Use KeyFromEnv for policy checks.
func KeyConfigured() bool {
	return strings.TrimSpace(os.Getenv(KeyEnv)) != ""
}
