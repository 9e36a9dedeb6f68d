// Package main is a CI-friendly smoke client for the homeworksync live feed.
//
// It connects to the feed with the required subprotocol, optionally triggers
// a sync through the HTTP API, and waits for the matching sync event.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/pflag"

	v1 "homeworksync/shared/contracts/feed/v1"
)

const maxReadBytes = 1 << 20

func main() {
	var (
		feedURL = pflag.String("url", "ws://127.0.0.1:8080/ws/feed", "feed WebSocket URL")
		origin  = pflag.String("origin", "http://localhost", "Origin header sent with the handshake")
		trigger = pflag.Bool("trigger", true, "POST /api/fetch_homework after connecting")
		timeout = pflag.Duration("timeout", 2*time.Minute, "overall deadline")
		verbose = pflag.BoolP("verbose", "v", false, "print every event")
	)
	pflag.Parse()

	if err := validateFeedURL(*feedURL); err != nil {
		fatalf("invalid --url: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	h := http.Header{}
	if strings.TrimSpace(*origin) != "" {
		h.Set("Origin", *origin)
	}
	conn, resp, err := websocket.Dial(ctx, *feedURL, &websocket.DialOptions{
		Subprotocols: []string{v1.Subprotocol},
		HTTPHeader:   h,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	if got := conn.Subprotocol(); got != v1.Subprotocol {
		fatalf("subprotocol mismatch: got=%q want=%q", got, v1.Subprotocol)
	}
	conn.SetReadLimit(maxReadBytes)
	fmt.Println("connected", *feedURL)

	if *trigger {
		go func() {
			if err := triggerSync(ctx, apiBase(*feedURL)); err != nil {
				fmt.Fprintln(os.Stderr, "trigger:", err)
			}
		}()
	}

	for {
		env, err := readEnvelope(ctx, conn)
		if err != nil {
			fatalf("read: %v", err)
		}
		if *verbose {
			fmt.Printf("%s %s %s\n", env.TS.Format(time.RFC3339), env.Type, env.Payload)
		}

		switch env.Type {
		case v1.TypeSyncCompleted:
			var p v1.SyncPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				fatalf("sync payload: %v", err)
			}
			fmt.Printf("OK sync run=%s new=%d total=%d saved=%t\n", p.RunID, p.NewItems, p.TotalItems, p.Saved)
			return
		case v1.TypeSyncFailed:
			var p v1.SyncPayload
			_ = json.Unmarshal(env.Payload, &p)
			fatalf("sync failed run=%s: %s", p.RunID, p.Error)
		}
	}
}

func readEnvelope(ctx context.Context, conn *websocket.Conn) (v1.Envelope, error) {
	mt, data, err := conn.Read(ctx)
	if err != nil {
		return v1.Envelope{}, err
	}
	if mt != websocket.MessageText {
		return v1.Envelope{}, fmt.Errorf("unexpected message type %v", mt)
	}
	var env v1.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return v1.Envelope{}, fmt.Errorf("bad json: %w", err)
	}
	if err := env.Validate(); err != nil {
		return v1.Envelope{}, fmt.Errorf("bad envelope: %w", err)
	}
	return env, nil
}

func triggerSync(ctx context.Context, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/fetch_homework", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Printf("trigger status=%d body=%s\n", resp.StatusCode, strings.TrimSpace(string(body)))
	return nil
}

// apiBase maps ws(s)://host/ws/feed to http(s)://host.
func apiBase(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

func validateFeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
