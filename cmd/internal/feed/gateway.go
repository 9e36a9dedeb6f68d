package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"homeworksync/cmd/internal/ids"
	v1 "homeworksync/shared/contracts/feed/v1"
)

// Gateway is the websocket entrypoint of the live feed.
//
// It enforces the origin policy and subprotocol, keeps connections alive
// with pings and drops peers that stay silent past the idle timeout.
// Subscribers only receive; inbound frames are discarded.
type Gateway struct {
	log *slog.Logger
	hub *Hub
	cfg Config

	patterns []string
}

// NewGateway constructs a gateway over hub.
func NewGateway(log *slog.Logger, hub *Hub, cfg Config) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub(log)
	}
	cfg = cfg.normalized()
	return &Gateway{log: log, hub: hub, cfg: cfg, patterns: originPatterns(cfg.AllowedOrigins)}
}

// Hub returns the hub the gateway subscribes connections to.
func (g *Gateway) Hub() *Hub { return g.hub }

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := checkOrigin(r, g.cfg.OriginRequired, g.cfg.AllowedOrigins); err != nil {
		g.log.Info("feed.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:       []string{v1.Subprotocol},
		OriginPatterns:     g.patterns,
		InsecureSkipVerify: g.cfg.DevInsecure,
	})
	if err != nil {
		g.log.Error("feed.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	if sp := conn.Subprotocol(); sp != v1.Subprotocol {
		g.log.Info("feed.reject.subprotocol", "got", sp, "want", v1.Subprotocol)
		_ = conn.Close(websocket.StatusProtocolError, "subprotocol required")
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	id, err := ids.NewULID(time.Now())
	if err != nil {
		g.log.Error("feed.subscriber.id.fail", "err", err)
		_ = conn.Close(websocket.StatusInternalError, "internal error")
		return
	}
	sub := NewSubscriber(id, g.cfg.SendQueue)
	g.serve(r.Context(), conn, sub)
}

func (g *Gateway) serve(parent context.Context, conn *websocket.Conn, sub *Subscriber) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.hub.Unsubscribe(sub.ID)
			_ = conn.Close(code, reason)
			cancel()
		})
	}

	g.hub.Subscribe(sub)

	var lastSeen atomic.Int64
	lastSeen.Store(time.Now().UnixNano())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				return
			case env := <-sub.Send:
				if err := writeEnvelope(ctx, conn, env, g.cfg.WriteTimeout); err != nil {
					g.log.Info("feed.write.fail", "subscriber_id", sub.ID, "close_status", websocket.CloseStatus(err), "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(g.cfg.HeartbeatInterval)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				return
			case <-t.C:
			}

			hbCtx, hbCancel := context.WithTimeout(ctx, g.cfg.HeartbeatTimeout)
			err := conn.Ping(hbCtx)
			hbCancel()

			if err == nil {
				failures = 0
				lastSeen.Store(time.Now().UnixNano())
				continue
			}

			failures++
			g.log.Info("feed.ping.fail", "subscriber_id", sub.ID, "failures", failures, "err", err)
			idle := time.Since(time.Unix(0, lastSeen.Load()))
			if failures >= maxPingFails || idle > g.cfg.IdleTimeout {
				shutdown(websocket.StatusGoingAway, "heartbeat failed")
				return
			}
		}
	}()

	// Reading is required for pings to complete; frames themselves are ignored.
	rl := newFrameLimiter(g.cfg.RateEvents, g.cfg.RateWindow)
	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			switch {
			case websocket.CloseStatus(err) != -1:
				shutdown(websocket.StatusNormalClosure, "peer closed")
			case errors.Is(err, context.Canceled), errors.Is(err, net.ErrClosed), errors.Is(err, io.EOF):
				shutdown(websocket.StatusNormalClosure, "closed")
			default:
				g.log.Info("feed.read.fail", "subscriber_id", sub.ID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			break
		}

		now := time.Now()
		lastSeen.Store(now.UnixNano())
		if !rl.AllowN(now, 1) {
			shutdown(websocket.StatusPolicyViolation, "rate limited")
			break
		}
	}

	<-writerDone
	select {
	case <-heartbeatDone:
	case <-time.After(closeGrace):
	}
}

func writeEnvelope(parent context.Context, conn *websocket.Conn, env v1.Envelope, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}
