package api

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config controls the HTTP API.
type Config struct {
	MaxBodyBytes int64  `env:"HOMEWORK_API_MAX_BODY_BYTES" envDefault:"4194304"`
	HTMLPath     string `env:"HOMEWORK_HTML_PATH"          envDefault:"homework_report.html"`
	ReportTitle  string `env:"HOMEWORK_REPORT_TITLE"`
	ReportOwner  string `env:"HOMEWORK_REPORT_OWNER"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{MaxBodyBytes: 4 << 20, HTMLPath: "homework_report.html"}
}

// LoadConfigFromEnv loads API config from environment variables with safe defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("api config: %w", err)
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	cfg.HTMLPath = strings.TrimSpace(cfg.HTMLPath)
	if cfg.HTMLPath == "" {
		cfg.HTMLPath = "homework_report.html"
	}
	return cfg, nil
}
