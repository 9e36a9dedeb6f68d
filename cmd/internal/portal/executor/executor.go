package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"homeworksync/cmd/internal/portal"
	"homeworksync/cmd/internal/portal/session"
	"homeworksync/cmd/security/token"
)

// Sessions hands out the current session and drops it on request.
// *session.Store implements it.
type Sessions interface {
	Get(ctx context.Context) (session.Session, error)
	Invalidate()
}

// Request describes one authorized portal call.
type Request struct {
	// Name labels logs, metrics and spans.
	Name string
	URL  string
	// Header entries override the default portal header set.
	Header http.Header
	// Cookies are sent alongside the session cookie. A caller cookie with the
	// session cookie name is ignored, including one in a raw Cookie header.
	Cookies []*http.Cookie
	// Timeout overrides Config.RequestTimeout when positive.
	Timeout time.Duration
}

// Outcome is a successful execution.
type Outcome struct {
	Status   int
	Body     []byte
	Payload  json.RawMessage
	Attempts int
}

// Executor runs authorized requests and repairs expired sessions transparently.
type Executor struct {
	log      *slog.Logger
	client   *http.Client
	sessions Sessions
	baseURL  string
	cfg      Config
	classify Classifier
	observer Observer
	tracer   trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithClassifier replaces the response classifier.
func WithClassifier(c Classifier) Option {
	return func(e *Executor) {
		if c != nil {
			e.classify = c
		}
	}
}

// WithObserver sets the observer notified about attempts and executions.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

const tracerName = "homeworksync/portal/executor"

// New constructs an Executor for the portal at baseURL.
func New(cfg Config, baseURL string, client *http.Client, sessions Sessions, log *slog.Logger, opts ...Option) *Executor {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = portal.NewHTTPClient(nil)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 16 << 20
	}

	e := &Executor{
		log:      log,
		client:   client,
		sessions: sessions,
		baseURL:  portal.NormalizeBaseURL(baseURL),
		cfg:      cfg,
		classify: NewClassifier(cfg.AuthSignals),
		observer: NopObserver{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// BaseURL is the portal address requests are built against.
func (e *Executor) BaseURL() string { return e.baseURL }

// Execute runs req with the configured retry budget.
func (e *Executor) Execute(ctx context.Context, req Request) (Outcome, error) {
	return e.ExecuteWithRetries(ctx, req, e.cfg.MaxRetries)
}

// ExecuteWithRetries runs req for at most maxRetries+1 attempts.
//
// Expired authorization, malformed bodies and network errors invalidate the
// session and consume an attempt. A missing session or a definitive upstream
// status ends the loop immediately. The error is always a *Failure.
func (e *Executor) ExecuteWithRetries(ctx context.Context, req Request, maxRetries int) (out Outcome, err error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if req.Name == "" {
		req.Name = "request"
	}

	ctx, span := e.tracer.Start(ctx, "portal."+req.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("homework.max_retries", maxRetries)),
	)
	start := time.Now()
	defer func() {
		span.SetAttributes(attribute.Int("homework.attempts", attemptsOf(out, err)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, KindOf(err).String())
		}
		span.End()
		e.observer.ExecutionFinished(req.Name, time.Since(start), err)
	}()

	var last error
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return Outcome{}, &Failure{Request: req.Name, Kind: KindCanceled, Attempts: attempt - 1, Err: cerr}
		}

		sess, serr := e.sessions.Get(ctx)
		if serr != nil && ctx.Err() != nil {
			return Outcome{}, &Failure{Request: req.Name, Kind: KindCanceled, Attempts: attempt - 1, Err: errors.Join(ctx.Err(), serr)}
		}
		if serr != nil {
			e.log.Error("executor.no_session", "request", req.Name, "attempt", attempt, "err", serr)
			return Outcome{}, &Failure{Request: req.Name, Kind: KindNoSessionAvailable, Attempts: attempt, Err: serr}
		}

		res := e.attempt(ctx, req, sess)
		e.observer.AttemptFinished(AttemptInfo{
			Request:  req.Name,
			Attempt:  attempt,
			Status:   res.status,
			Verdict:  res.verdict,
			Err:      res.err,
			Duration: res.duration,
		})
		lastAttempt := attempt == maxRetries+1

		if res.err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return Outcome{}, &Failure{Request: req.Name, Kind: KindCanceled, Attempts: attempt, Err: cerr}
			}
			e.log.Warn("executor.attempt.network",
				"request", req.Name, "attempt", attempt, "session", token.Fingerprint(sess.ID), "err", res.err)
			e.sessions.Invalidate()
			last = res.err
			continue
		}

		if res.oversized {
			e.log.Error("executor.attempt.too_large",
				"request", req.Name, "attempt", attempt, "status", res.status, "limit", e.cfg.MaxBodyBytes)
			return Outcome{}, &Failure{
				Request: req.Name, Kind: KindResponseTooLarge, Status: res.status, Attempts: attempt,
				Err: fmt.Errorf("body exceeds %d bytes", e.cfg.MaxBodyBytes),
			}
		}

		switch res.verdict {
		case VerdictOK:
			e.log.Debug("executor.attempt.ok", "request", req.Name, "attempt", attempt, "status", res.status)
			return Outcome{
				Status:   res.status,
				Body:     res.body,
				Payload:  json.RawMessage(res.body),
				Attempts: attempt,
			}, nil

		case VerdictAuthExpired:
			e.log.Info("executor.attempt.auth_expired",
				"request", req.Name, "attempt", attempt, "status", res.status, "session", token.Fingerprint(sess.ID))
			e.sessions.Invalidate()
			last = fmt.Errorf("%w: status %d", ErrAuthorizationExpired, res.status)

		case VerdictMalformed:
			if lastAttempt {
				e.log.Error("executor.attempt.invalid_payload", "request", req.Name, "attempt", attempt, "status", res.status)
				return Outcome{}, &Failure{
					Request: req.Name, Kind: KindInvalidPayload, Status: res.status, Attempts: attempt,
					Err: errors.New(snippet(res.body)),
				}
			}
			e.log.Info("executor.attempt.malformed", "request", req.Name, "attempt", attempt, "status", res.status)
			e.sessions.Invalidate()
			last = fmt.Errorf("%w: malformed body", ErrAuthorizationExpired)

		default:
			e.log.Error("executor.attempt.upstream_status", "request", req.Name, "attempt", attempt, "status", res.status)
			return Outcome{}, &Failure{
				Request: req.Name, Kind: KindUpstreamStatus, Status: res.status, Attempts: attempt,
				Err: errors.New(snippet(res.body)),
			}
		}
	}

	e.log.Error("executor.exhausted", "request", req.Name, "attempts", maxRetries+1, "err", last)
	return Outcome{}, &Failure{Request: req.Name, Kind: KindExhaustedRetries, Attempts: maxRetries + 1, Err: last}
}

type attemptResult struct {
	status    int
	body      []byte
	verdict   Verdict
	oversized bool
	err       error
	duration  time.Duration
}

func (e *Executor) attempt(ctx context.Context, req Request, sess session.Session) attemptResult {
	timeout := e.cfg.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var res attemptResult

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		res.err = err
		return res
	}
	hreq.Header = portal.APIHeaders(e.baseURL)
	for k, vs := range req.Header {
		if http.CanonicalHeaderKey(k) == "Cookie" {
			continue
		}
		hreq.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	for _, c := range callerCookies(req) {
		if c == nil || c.Name == portal.CookieName {
			continue
		}
		hreq.AddCookie(c)
	}
	hreq.AddCookie(portal.SessionCookie(sess.ID))

	resp, err := e.client.Do(hreq)
	if err != nil {
		res.err = err
		res.duration = time.Since(start)
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes+1))
	res.status = resp.StatusCode
	if err != nil {
		res.err = fmt.Errorf("read body: %w", err)
		res.duration = time.Since(start)
		return res
	}
	if int64(len(body)) > e.cfg.MaxBodyBytes {
		res.oversized = true
		res.duration = time.Since(start)
		return res
	}

	res.body = body
	res.verdict = e.classify(resp.StatusCode, body)
	res.duration = time.Since(start)
	return res
}

// callerCookies merges cookies given in a raw Cookie header with req.Cookies.
func callerCookies(req Request) []*http.Cookie {
	var out []*http.Cookie
	for k, vs := range req.Header {
		if http.CanonicalHeaderKey(k) != "Cookie" {
			continue
		}
		parsed := &http.Request{Header: http.Header{"Cookie": vs}}
		out = append(out, parsed.Cookies()...)
	}
	return append(out, req.Cookies...)
}

func attemptsOf(out Outcome, err error) int {
	var f *Failure
	if errors.As(err, &f) {
		return f.Attempts
	}
	return out.Attempts
}

// snippet shortens a body for error messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "empty body"
	}
	return s
}
