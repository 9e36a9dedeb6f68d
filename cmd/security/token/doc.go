// Package token derives log-safe fingerprints of portal session identifiers.
//
// A session identifier is a bearer credential, so it never appears in logs,
// metrics labels, feed events or API responses. Those surfaces carry a short
// BLAKE2b fingerprint instead, which is stable for a given identifier and key
// and lets operators correlate events without being able to replay the token.
//
// Environment:
//   - HOMEWORK_TOKEN_FINGERPRINT_KEY: optional BLAKE2b key (16..64 bytes).
//     When set, fingerprints are keyed and cannot be brute-forced offline.
//
// Policy:
//   - When REQUIRE_FINGERPRINT_KEY is enabled by the application, callers use
//     KeyFromEnv to refuse startup without a key of sufficient length.
package token
