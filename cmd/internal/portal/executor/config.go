package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config bounds request execution.
type Config struct {
	// RequestTimeout bounds each attempt. Requests may override it.
	RequestTimeout time.Duration `env:"HOMEWORK_REQUEST_TIMEOUT" envDefault:"30s"`

	// MaxRetries is the number of attempts after the first.
	MaxRetries int `env:"HOMEWORK_MAX_RETRIES" envDefault:"2"`

	// AuthSignals are body substrings treated as expired authorization.
	AuthSignals []string `env:"HOMEWORK_AUTH_SIGNALS" envDefault:"session expired,login required,authentication failed,unauthorized" envSeparator:","`

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `env:"HOMEWORK_MAX_BODY_BYTES" envDefault:"16777216"`
}

// DefaultConfig returns the production defaults without reading the environment.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		MaxRetries:     2,
		AuthSignals:    append([]string(nil), DefaultAuthSignals...),
		MaxBodyBytes:   16 << 20,
	}
}

// LoadConfigFromEnv loads executor configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("executor: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("executor: request timeout must be positive")
	}
	if cfg.MaxRetries < 0 {
		return Config{}, fmt.Errorf("executor: max retries must not be negative")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 16 << 20
	}

	signals := cfg.AuthSignals[:0]
	for _, s := range cfg.AuthSignals {
		if s = strings.TrimSpace(s); s != "" {
			signals = append(signals, s)
		}
	}
	cfg.AuthSignals = signals
	return cfg, nil
}
