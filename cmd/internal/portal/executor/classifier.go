package executor

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
)

// Verdict is the classification of a single response.
type Verdict uint8

const (
	// VerdictOK means the response carries a usable payload.
	VerdictOK Verdict = iota
	// VerdictAuthExpired means the session stopped working; invalidate and retry.
	VerdictAuthExpired
	// VerdictMalformed means the body is not JSON; retried as a subtly expired session.
	VerdictMalformed
	// VerdictUpstreamStatus means a definitive non-2xx response.
	VerdictUpstreamStatus
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictAuthExpired:
		return "auth_expired"
	case VerdictMalformed:
		return "malformed"
	case VerdictUpstreamStatus:
		return "upstream_status"
	default:
		return "unknown"
	}
}

// Classifier decides what a response means for the retry loop.
type Classifier func(status int, body []byte) Verdict

// DefaultAuthSignals are body substrings the portal uses to report a dead session.
var DefaultAuthSignals = []string{
	"session expired",
	"login required",
	"authentication failed",
	"unauthorized",
}

// NewClassifier returns the standard classifier:
//
//  1. 401 and 403 are expired authorization.
//  2. A body containing any signal (case-insensitively) is expired authorization.
//  3. A body that is not JSON is malformed.
//  4. Any other non-2xx status is definitive.
//
// A nil signal list uses DefaultAuthSignals.
func NewClassifier(signals []string) Classifier {
	if signals == nil {
		signals = DefaultAuthSignals
	}
	folded := make([]string, 0, len(signals))
	for _, s := range signals {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		folded = append(folded, cases.Fold().String(s))
	}

	return func(status int, body []byte) Verdict {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return VerdictAuthExpired
		}
		if len(folded) > 0 {
			// cases.Caser is stateful, so each call gets its own.
			text := cases.Fold().String(string(body))
			for _, s := range folded {
				if strings.Contains(text, s) {
					return VerdictAuthExpired
				}
			}
		}
		if !gjson.ValidBytes(body) {
			return VerdictMalformed
		}
		if status < 200 || status > 299 {
			return VerdictUpstreamStatus
		}
		return VerdictOK
	}
}
