package app

import (
	"errors"
	"fmt"

	"homeworksync/cmd/security/token"
)

// ValidateSecurityConfig fails startup when the fingerprint key policy is
// enforced but the key is absent or out of bounds. Without the key, session
// fingerprints in logs and on the feed are unkeyed digests.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireFingerprintKey {
		return nil
	}

	_, err := token.KeyFromEnv(token.MinKeyBytes)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrKeyMissing):
		return fmt.Errorf("security policy: HOMEWORK_REQUIRE_FINGERPRINT_KEY=true but %s is missing", token.KeyEnv)
	case errors.Is(err, token.ErrKeyTooShort):
		return fmt.Errorf("security policy: %s is too short (min %d bytes)", token.KeyEnv, token.MinKeyBytes)
	case errors.Is(err, token.ErrKeyTooLong):
		return fmt.Errorf("security policy: %s is too long", token.KeyEnv)
	default:
		return err
	}
}
