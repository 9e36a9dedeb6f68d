package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"homeworksync/cmd/internal/portal"
	"homeworksync/cmd/security/token"
)

const maxLoginBodyBytes = 1 << 20

// ClientFactory returns an HTTP client bound to jar.
type ClientFactory func(jar http.CookieJar) *http.Client

// LoginStrategy signs in with the configured credentials and keeps the
// session cookie the portal hands back.
type LoginStrategy struct {
	BaseURL     string
	Credentials Credentials
	TTL         time.Duration
	// Timeout bounds each individual upstream call of the handshake.
	Timeout   time.Duration
	Validator Validator
	NewClient ClientFactory
	Log       *slog.Logger
}

func (s *LoginStrategy) Origin() Origin { return OriginLogin }

func (s *LoginStrategy) Acquire(ctx context.Context, now time.Time) (Session, error) {
	if !s.Credentials.Configured() {
		return Session{}, ErrNoCredentialsConfigured
	}

	jar, err := portal.NewCookieJar()
	if err != nil {
		return Session{}, fmt.Errorf("cookie jar: %w", err)
	}
	client := s.client(jar)
	base := portal.NormalizeBaseURL(s.BaseURL)

	// The login endpoint expects the cookie context created by the landing page.
	if err := s.visitLanding(ctx, client, base); err != nil {
		return Session{}, err
	}
	if err := s.submit(ctx, client, base); err != nil {
		return Session{}, err
	}

	id := cookieFromJar(jar, base)
	if id == "" {
		return Session{}, ErrNoSessionCookie
	}
	if s.Validator == nil || !s.Validator.Validate(ctx, id) {
		s.logger().Warn("session.login.unusable", "session", token.Fingerprint(id))
		return Session{}, ErrValidationFailed
	}
	return Session{ID: id, ExpiresAt: now.Add(s.TTL), Origin: OriginLogin}, nil
}

func (s *LoginStrategy) visitLanding(ctx context.Context, client *http.Client, base string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, portal.PageURL(base, "/"), nil)
	if err != nil {
		return err
	}
	req.Header = portal.PageHeaders()

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("landing page: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLoginBodyBytes))
	_ = resp.Body.Close()
	return nil
}

func (s *LoginStrategy) submit(ctx context.Context, client *http.Client, base string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	form := url.Values{}
	form.Set("request", "login")
	form.Set("loginAs", "standard")
	form.Set("isRegister", "0")
	form.Set("newUser", "0")
	form.Set("username", strings.TrimSpace(s.Credentials.Username))
	form.Set("password", s.Credentials.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+portal.LoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header = portal.LoginHeaders(base)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrLoginRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLoginBodyBytes))
	if err != nil {
		return fmt.Errorf("login response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: login response is not json", ErrMalformedResponse)
	}

	res := gjson.ParseBytes(body)
	if res.Get("success").Type == gjson.True || res.Get("status").String() == "success" {
		s.logger().Info("session.login.accepted", "user", strings.TrimSpace(s.Credentials.Username))
		return nil
	}

	msg := res.Get("error").String()
	if msg == "" {
		msg = res.Get("message").String()
	}
	if msg == "" {
		return ErrLoginRejected
	}
	return fmt.Errorf("%w: %s", ErrLoginRejected, msg)
}

func (s *LoginStrategy) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *LoginStrategy) client(jar http.CookieJar) *http.Client {
	if s.NewClient != nil {
		return s.NewClient(jar)
	}
	return portal.NewHTTPClient(jar)
}

func (s *LoginStrategy) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func cookieFromJar(jar http.CookieJar, base string) string {
	u, err := url.Parse(base + "/")
	if err != nil {
		return ""
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == portal.CookieName && c.Value != "" {
			return c.Value
		}
	}
	return ""
}
