package feed

import (
	"errors"
	"log/slog"
	"time"

	"homeworksync/cmd/internal/homework"
	"homeworksync/cmd/internal/ids"
	"homeworksync/cmd/internal/portal/executor"
	"homeworksync/cmd/internal/portal/session"
	"homeworksync/cmd/security/token"
	v1 "homeworksync/shared/contracts/feed/v1"
)

// Publisher converts lifecycle callbacks into feed envelopes.
//
// It implements session.Observer and homework.SyncObserver; Executions
// returns the executor.Observer view.
type Publisher struct {
	log *slog.Logger
	hub *Hub
	now func() time.Time
}

var (
	_ session.Observer      = (*Publisher)(nil)
	_ homework.SyncObserver = (*Publisher)(nil)
	_ executor.Observer     = executionPublisher{}
)

// NewPublisher constructs a Publisher writing to hub.
func NewPublisher(hub *Hub, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{log: log, hub: hub, now: time.Now}
}

func (p *Publisher) AttemptFinished(res session.AttemptResult) {
	if !res.Success() {
		return
	}
	p.publish(v1.TypeSessionAcquired, v1.SessionPayload{
		Origin:      string(res.Session.Origin),
		Fingerprint: token.Fingerprint(res.Session.ID),
		ExpiresAt:   res.Session.ExpiresAt.UTC(),
		DurationMS:  res.Duration.Milliseconds(),
	})
}

func (p *Publisher) Invalidated(prev session.Session) {
	p.publish(v1.TypeSessionInvalidated, v1.SessionPayload{
		Origin:      string(prev.Origin),
		Fingerprint: token.Fingerprint(prev.ID),
		ExpiresAt:   prev.ExpiresAt.UTC(),
	})
}

func (p *Publisher) SyncFinished(res homework.Result, err error) {
	payload := v1.SyncPayload{
		RunID:      res.RunID,
		NewItems:   res.NewItems,
		TotalItems: res.TotalItems,
		Saved:      res.Saved,
		DurationMS: res.Duration.Milliseconds(),
	}
	if err != nil {
		payload.Error = err.Error()
		p.publish(v1.TypeSyncFailed, payload)
		return
	}
	p.publish(v1.TypeSyncCompleted, payload)
}

// Executions returns an executor.Observer that publishes an error event for
// every failed execution. Cancellations are the caller's doing and are not reported.
func (p *Publisher) Executions() executor.Observer { return executionPublisher{p} }

type executionPublisher struct{ p *Publisher }

func (executionPublisher) AttemptFinished(executor.AttemptInfo) {}

func (e executionPublisher) ExecutionFinished(request string, _ time.Duration, err error) {
	if err == nil {
		return
	}
	kind := executor.KindOf(err)
	if kind == executor.KindCanceled {
		return
	}

	code := "execution_failed"
	if kind != 0 {
		code = kind.String()
	}
	var f *executor.Failure
	msg := err.Error()
	if errors.As(err, &f) && f.Err != nil {
		msg = f.Err.Error()
	}
	e.p.publish(v1.TypeError, v1.ErrorPayload{Code: code, Message: msg, Request: request})
}

func (p *Publisher) publish(typ string, payload any) {
	if p == nil || p.hub == nil {
		return
	}

	now := p.now()
	id, err := ids.NewEnvelopeID(now)
	if err != nil {
		p.log.Error("feed.envelope.id.fail", "type", typ, "err", err)
		return
	}
	env, err := v1.New(typ, id, now, payload)
	if err != nil {
		p.log.Error("feed.envelope.build.fail", "type", typ, "err", err)
		return
	}
	n := p.hub.Publish(env)
	p.log.Debug("feed.publish", "type", typ, "id", id, "delivered", n)
}
