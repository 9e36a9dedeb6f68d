package feed

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config tunes the websocket gateway.
type Config struct {
	// OriginRequired rejects handshakes without an Origin header.
	OriginRequired bool `env:"HOMEWORK_FEED_ORIGIN_REQUIRED" envDefault:"true"`

	AllowedOrigins []string `env:"HOMEWORK_FEED_ALLOWED_ORIGINS" envDefault:"http://localhost,http://127.0.0.1" envSeparator:","`

	// DevInsecure disables the websocket library's own origin check. Dev only.
	DevInsecure bool `env:"HOMEWORK_FEED_DEV_INSECURE"`

	WriteTimeout      time.Duration `env:"HOMEWORK_FEED_WRITE_TIMEOUT"      envDefault:"5s"`
	IdleTimeout       time.Duration `env:"HOMEWORK_FEED_IDLE_TIMEOUT"       envDefault:"2m"`
	HeartbeatInterval time.Duration `env:"HOMEWORK_FEED_HEARTBEAT_INTERVAL" envDefault:"25s"`
	HeartbeatTimeout  time.Duration `env:"HOMEWORK_FEED_HEARTBEAT_TIMEOUT"  envDefault:"5s"`
	SendQueue         int           `env:"HOMEWORK_FEED_SEND_QUEUE"         envDefault:"256"`

	// Inbound frames are ignored but still rate limited.
	RateEvents int           `env:"HOMEWORK_FEED_RATE_EVENTS" envDefault:"30"`
	RateWindow time.Duration `env:"HOMEWORK_FEED_RATE_WINDOW" envDefault:"10s"`
}

const (
	minSendQueue  = 32
	maxFrameBytes = 4 << 10
	maxPingFails  = 3
	closeGrace    = time.Second
)

// DefaultConfig returns the secure defaults.
func DefaultConfig() Config {
	return Config{
		OriginRequired:    true,
		AllowedOrigins:    []string{"http://localhost", "http://127.0.0.1"},
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       2 * time.Minute,
		HeartbeatInterval: 25 * time.Second,
		HeartbeatTimeout:  5 * time.Second,
		SendQueue:         256,
		RateEvents:        30,
		RateWindow:        10 * time.Second,
	}
}

// LoadConfigFromEnv loads gateway config and clamps invalid values to defaults.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("feed config: %w", err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = def.HeartbeatTimeout
	}
	if c.SendQueue < minSendQueue {
		c.SendQueue = minSendQueue
	}
	if c.RateEvents <= 0 {
		c.RateEvents = def.RateEvents
	}
	if c.RateWindow <= 0 {
		c.RateWindow = def.RateWindow
	}
	return c
}
