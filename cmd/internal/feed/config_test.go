package feed

import (
	"slices"
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HOMEWORK_FEED_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("HOMEWORK_FEED_SEND_QUEUE", "4")
	t.Setenv("HOMEWORK_FEED_HEARTBEAT_INTERVAL", "10s")
	t.Setenv("HOMEWORK_FEED_ORIGIN_REQUIRED", "false")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if !slices.Equal(cfg.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
	if cfg.SendQueue != minSendQueue {
		t.Fatalf("send queue should clamp to %d, got %d", minSendQueue, cfg.SendQueue)
	}
	if cfg.HeartbeatInterval != 10*time.Second || cfg.OriginRequired {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if cfg.IdleTimeout != 2*time.Minute {
		t.Fatalf("idle default=%v", cfg.IdleTimeout)
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("HOMEWORK_FEED_WRITE_TIMEOUT", "soon")

	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFrameLimiter(t *testing.T) {
	t.Parallel()

	rl := newFrameLimiter(2, time.Second)
	now := time.Unix(100, 0)
	if !rl.AllowN(now, 1) || !rl.AllowN(now, 1) {
		t.Fatalf("burst of two should pass")
	}
	if rl.AllowN(now.Add(100*time.Millisecond), 1) {
		t.Fatalf("third frame right after the burst should be refused")
	}
	if !rl.AllowN(now.Add(600*time.Millisecond), 1) {
		t.Fatalf("budget should refill")
	}
}

func TestFrameLimiter_Disabled(t *testing.T) {
	t.Parallel()

	rl := newFrameLimiter(0, time.Second)
	now := time.Unix(100, 0)
	for i := range 100 {
		if !rl.AllowN(now, 1) {
			t.Fatalf("frame %d refused with limiting disabled", i)
		}
	}
}
