package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"homeworksync/cmd/internal/portal"
	"homeworksync/cmd/security/token"
)

const maxValidateBodyBytes = 4 << 20

// Validator decides whether the portal currently accepts a session identifier.
// It never returns an error: anything other than a clear acceptance is a rejection.
type Validator interface {
	Validate(ctx context.Context, sessionID string) bool
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, sessionID string) bool

func (f ValidatorFunc) Validate(ctx context.Context, sessionID string) bool { return f(ctx, sessionID) }

// HTTPValidator checks the homework list endpoint with the candidate identifier.
type HTTPValidator struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

// NewHTTPValidator constructs a validator for cfg.BaseURL.
func NewHTTPValidator(cfg Config, client *http.Client, log *slog.Logger) *HTTPValidator {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = portal.NewHTTPClient(nil)
	}
	timeout := cfg.ValidateTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPValidator{
		log:     log,
		client:  client,
		baseURL: portal.NormalizeBaseURL(cfg.BaseURL),
		timeout: timeout,
		now:     time.Now,
	}
}

// Validate issues a single GET and never retries.
func (v *HTTPValidator) Validate(ctx context.Context, sessionID string) bool {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, portal.HomeworkListURL(v.baseURL, v.now()), nil)
	if err != nil {
		v.log.Error("session.validate.request.fail", "err", err)
		return false
	}
	req.Header = portal.APIHeaders(v.baseURL)
	req.AddCookie(portal.SessionCookie(sessionID))

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn("session.validate.fail", "session", token.Fingerprint(sessionID), "err", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		v.log.Info("session.validate.rejected", "session", token.Fingerprint(sessionID), "status", resp.StatusCode)
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxValidateBodyBytes))
	if err != nil {
		v.log.Warn("session.validate.read.fail", "session", token.Fingerprint(sessionID), "err", err)
		return false
	}

	ok := AcceptsPayload(body)
	v.log.Debug("session.validate.done", "session", token.Fingerprint(sessionID), "valid", ok)
	return ok
}

// AcceptsPayload reports whether a homework list response body proves the
// session is authorized.
//
// Accepted: a JSON array, or a JSON object carrying "data" or "success",
// unless it is an explicit {"success": false} whose error mentions login.
func AcceptsPayload(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	res := gjson.ParseBytes(body)

	switch {
	case res.IsArray():
		return true
	case res.IsObject():
		success := res.Get("success")
		if success.Type == gjson.False && strings.Contains(strings.ToLower(res.Get("error").String()), "login") {
			return false
		}
		return success.Exists() || res.Get("data").Exists()
	default:
		return false
	}
}
