package session

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"homeworksync/cmd/internal/portal"
)

// Config defines the session subsystem: where the portal lives, which
// acquisition inputs exist, and how long each kind of session is trusted.
//
// Credential-derived sessions get a longer lifetime because the portal keeps
// authenticated sessions alive longer than anonymous ones.
type Config struct {
	// BaseURL is the portal address.
	BaseURL string `env:"HOMEWORK_PORTAL_BASE_URL" envDefault:"https://bogazicisehirkolejiobs.com"`

	// Token is an optional pre-existing session identifier, typically copied from a browser.
	Token string `env:"PHPSESSID"`

	// Username and Password enable the credential login strategy.
	Username string `env:"SCHOOL_USERNAME"`
	Password string `env:"SCHOOL_PASSWORD"`

	EnvTTL     time.Duration `env:"HOMEWORK_SESSION_ENV_TTL"     envDefault:"2h"`
	LoginTTL   time.Duration `env:"HOMEWORK_SESSION_LOGIN_TTL"   envDefault:"4h"`
	HarvestTTL time.Duration `env:"HOMEWORK_SESSION_HARVEST_TTL" envDefault:"2h"`

	// ValidateTimeout bounds every single upstream call made while acquiring.
	ValidateTimeout time.Duration `env:"HOMEWORK_VALIDATE_TIMEOUT" envDefault:"10s"`

	// HarvestPaths are public pages visited, in order, by the harvest strategy.
	// An empty list disables harvesting.
	HarvestPaths []string `env:"HOMEWORK_HARVEST_PATHS" envDefault:"/,/login,/index.php" envSeparator:","`
}

// DefaultConfig returns the production defaults without reading the environment.
func DefaultConfig() Config {
	return Config{
		BaseURL:         portal.DefaultBaseURL,
		EnvTTL:          2 * time.Hour,
		LoginTTL:        4 * time.Hour,
		HarvestTTL:      2 * time.Hour,
		ValidateTimeout: 10 * time.Second,
		HarvestPaths:    []string{"/", "/login", "/index.php"},
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (durations must be valid Go duration strings):
//   - HOMEWORK_PORTAL_BASE_URL
//   - PHPSESSID
//   - SCHOOL_USERNAME / SCHOOL_PASSWORD
//   - HOMEWORK_SESSION_ENV_TTL / HOMEWORK_SESSION_LOGIN_TTL / HOMEWORK_SESSION_HARVEST_TTL
//   - HOMEWORK_VALIDATE_TIMEOUT
//   - HOMEWORK_HARVEST_PATHS (comma separated)
//
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.BaseURL = portal.NormalizeBaseURL(cfg.BaseURL)
	cfg.HarvestPaths = cleanPaths(cfg.HarvestPaths)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that the environment parser cannot express.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base url %q", ErrConfig, c.BaseURL)
	}
	if c.EnvTTL <= 0 || c.LoginTTL <= 0 || c.HarvestTTL <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", ErrConfig)
	}
	if c.ValidateTimeout <= 0 {
		return fmt.Errorf("%w: validate timeout must be positive", ErrConfig)
	}
	return nil
}

// Credentials returns the configured login credentials.
func (c Config) Credentials() Credentials {
	return Credentials{Username: strings.TrimSpace(c.Username), Password: c.Password}
}

func cleanPaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
