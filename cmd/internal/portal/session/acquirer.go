package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"homeworksync/cmd/internal/portal"
	"homeworksync/cmd/security/token"
)

// Strategy produces a validated session or explains why it could not.
//
// Strategies return ErrNoCredentialsConfigured when they have no input to
// work with. They never retry internally.
type Strategy interface {
	Origin() Origin
	Acquire(ctx context.Context, now time.Time) (Session, error)
}

// Acquirer runs strategies in order and stops at the first success.
type Acquirer struct {
	log        *slog.Logger
	strategies []Strategy
	observer   Observer
	now        func() time.Time
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer)

// WithAcquirerObserver sets the observer notified after every strategy attempt.
func WithAcquirerObserver(o Observer) AcquirerOption {
	return func(a *Acquirer) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithAcquirerClock overrides the clock used to compute expiries.
func WithAcquirerClock(now func() time.Time) AcquirerOption {
	return func(a *Acquirer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAcquirer builds an Acquirer over an explicit strategy list.
func NewAcquirer(log *slog.Logger, strategies []Strategy, opts ...AcquirerOption) *Acquirer {
	if log == nil {
		log = slog.Default()
	}
	a := &Acquirer{
		log:        log,
		strategies: strategies,
		observer:   NopObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// NewDefaultAcquirer wires the three portal strategies in their fixed order:
// environment token, credential login, anonymous harvest.
func NewDefaultAcquirer(cfg Config, client *http.Client, validator Validator, log *slog.Logger, opts ...AcquirerOption) *Acquirer {
	if log == nil {
		log = slog.Default()
	}
	newClient := func(jar http.CookieJar) *http.Client {
		if client == nil {
			return portal.NewHTTPClient(jar)
		}
		c := *client
		c.Jar = jar
		return &c
	}

	strategies := []Strategy{
		&EnvStrategy{Token: cfg.Token, TTL: cfg.EnvTTL, Validator: validator},
		&LoginStrategy{
			BaseURL:     cfg.BaseURL,
			Credentials: cfg.Credentials(),
			TTL:         cfg.LoginTTL,
			Timeout:     cfg.ValidateTimeout,
			Validator:   validator,
			NewClient:   newClient,
			Log:         log,
		},
		&HarvestStrategy{
			BaseURL:   cfg.BaseURL,
			Paths:     cfg.HarvestPaths,
			TTL:       cfg.HarvestTTL,
			Timeout:   cfg.ValidateTimeout,
			Validator: validator,
			NewClient: newClient,
			Log:       log,
		},
	}
	return NewAcquirer(log, strategies, opts...)
}

// Acquire tries every strategy once. The returned error wraps
// ErrNoSessionAvailable together with each strategy's failure.
func (a *Acquirer) Acquire(ctx context.Context) (Session, error) {
	errs := make([]error, 0, len(a.strategies))

	for _, s := range a.strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := a.now()
		sess, err := s.Acquire(ctx, start)
		if err == nil && sess.IsZero() {
			err = ErrNoSessionCookie
		}

		res := AttemptResult{Strategy: s.Origin(), Err: err, Duration: a.now().Sub(start)}
		if err == nil {
			sess.Origin = s.Origin()
			res.Session = sess
		}
		a.observer.AttemptFinished(res)

		if err == nil {
			a.log.Info("session.acquire.ok",
				"strategy", s.Origin(),
				"session", token.Fingerprint(sess.ID),
				"expires_at", sess.ExpiresAt,
			)
			return sess, nil
		}

		if errors.Is(err, ErrNoCredentialsConfigured) {
			a.log.Debug("session.acquire.skip", "strategy", s.Origin())
		} else {
			a.log.Warn("session.acquire.fail", "strategy", s.Origin(), "err", err)
		}
		errs = append(errs, &StrategyError{Strategy: s.Origin(), Err: err})
	}

	a.log.Error("session.acquire.exhausted", "strategies", len(a.strategies))
	return Session{}, fmt.Errorf("%w: %w", ErrNoSessionAvailable, errors.Join(errs...))
}

// EnvStrategy reuses an externally supplied identifier after validating it.
type EnvStrategy struct {
	Token     string
	TTL       time.Duration
	Validator Validator
}

func (s *EnvStrategy) Origin() Origin { return OriginEnv }

func (s *EnvStrategy) Acquire(ctx context.Context, now time.Time) (Session, error) {
	if s.Token == "" {
		return Session{}, ErrNoCredentialsConfigured
	}
	if s.Validator == nil || !s.Validator.Validate(ctx, s.Token) {
		return Session{}, ErrValidationFailed
	}
	return Session{ID: s.Token, ExpiresAt: now.Add(s.TTL), Origin: OriginEnv}, nil
}
