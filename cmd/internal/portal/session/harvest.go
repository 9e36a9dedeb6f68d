package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"homeworksync/cmd/internal/portal"
	"homeworksync/cmd/security/token"
)

// HarvestStrategy visits public pages and keeps the first session cookie
// the portal accepts.
type HarvestStrategy struct {
	BaseURL   string
	Paths     []string
	TTL       time.Duration
	Timeout   time.Duration
	Validator Validator
	NewClient ClientFactory
	Log       *slog.Logger
}

func (s *HarvestStrategy) Origin() Origin { return OriginHarvest }

func (s *HarvestStrategy) Acquire(ctx context.Context, now time.Time) (Session, error) {
	if len(s.Paths) == 0 {
		return Session{}, ErrNoCredentialsConfigured
	}
	base := portal.NormalizeBaseURL(s.BaseURL)

	var errs []error
	for _, path := range s.Paths {
		if err := ctx.Err(); err != nil {
			return Session{}, err
		}

		id, err := s.visit(ctx, base, path)
		if err != nil {
			s.logger().Debug("session.harvest.miss", "path", path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if s.Validator == nil || !s.Validator.Validate(ctx, id) {
			s.logger().Debug("session.harvest.rejected", "path", path, "session", token.Fingerprint(id))
			errs = append(errs, fmt.Errorf("%s: %w", path, ErrValidationFailed))
			continue
		}

		s.logger().Info("session.harvest.ok", "path", path, "session", token.Fingerprint(id))
		return Session{ID: id, ExpiresAt: now.Add(s.TTL), Origin: OriginHarvest}, nil
	}
	return Session{}, errors.Join(errs...)
}

// visit loads one page with a fresh cookie jar so every candidate is independent.
func (s *HarvestStrategy) visit(ctx context.Context, base, path string) (string, error) {
	jar, err := portal.NewCookieJar()
	if err != nil {
		return "", fmt.Errorf("cookie jar: %w", err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, portal.PageURL(base, path), nil)
	if err != nil {
		return "", err
	}
	req.Header = portal.PageHeaders()

	client := portal.NewHTTPClient(jar)
	if s.NewClient != nil {
		client = s.NewClient(jar)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLoginBodyBytes))
	_ = resp.Body.Close()

	// Redirect hops store their cookies in the jar; the final response may not repeat them.
	if id := cookieFromJar(jar, base); id != "" {
		return id, nil
	}
	for _, c := range resp.Cookies() {
		if c.Name == portal.CookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrNoSessionCookie
}

func (s *HarvestStrategy) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
