package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"homeworksync/cmd/internal/homework"
	v1 "homeworksync/shared/contracts/feed/v1"
)

func newTestGateway(t *testing.T) (*Gateway, string) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://localhost"}
	g := NewGateway(slog.New(slog.DiscardHandler), nil, cfg)

	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return g, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGateway_RejectsMissingOrigin(t *testing.T) {
	t.Parallel()

	_, url := newTestGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{v1.Subprotocol}})
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestGateway_RejectsMissingSubprotocol(t *testing.T) {
	t.Parallel()

	_, url := newTestGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": {"http://localhost"}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.CloseNow() }()

	_, _, err = conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusProtocolError {
		t.Fatalf("expected protocol error close, got %v", err)
	}
}

func TestGateway_DeliversPublishedEnvelopes(t *testing.T) {
	t.Parallel()

	g, url := newTestGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{v1.Subprotocol},
		HTTPHeader:   http.Header{"Origin": {"http://localhost"}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	waitFor(t, func() bool { return g.Hub().Len() == 1 })

	pub := NewPublisher(g.Hub(), slog.New(slog.DiscardHandler))
	pub.SyncFinished(homeworkResult(), nil)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env v1.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := env.Validate(); err != nil || env.Type != v1.TypeSyncCompleted {
		t.Fatalf("unexpected envelope %+v err=%v", env, err)
	}

	_ = conn.Close(websocket.StatusNormalClosure, "done")
	waitFor(t, func() bool { return g.Hub().Len() == 0 })
}

func homeworkResult() homework.Result {
	return homework.Result{RunID: "01JRUN", NewItems: 1, TotalItems: 3, Saved: true}
}
