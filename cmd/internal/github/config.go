package github

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("github: invalid config")

// Config addresses one repository branch through the contents API.
type Config struct {
	// #nosec G101 -- struct field, not a credential.
	Token string `env:"GITHUB_TOKEN"`

	// Repo is "owner/name".
	Repo string `env:"GITHUB_REPO"`

	APIURL  string        `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	RawURL  string        `env:"GITHUB_RAW_URL" envDefault:"https://raw.githubusercontent.com"`
	Branch  string        `env:"GITHUB_BRANCH"  envDefault:"main"`
	Timeout time.Duration `env:"GITHUB_TIMEOUT" envDefault:"20s"`
}

// LoadConfigFromEnv loads GitHub configuration from environment variables.
// Token and Repo are required.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and normalizes URLs.
func (c *Config) Validate() error {
	c.Token = strings.TrimSpace(c.Token)
	c.Repo = strings.Trim(strings.TrimSpace(c.Repo), "/")
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.RawURL = strings.TrimRight(strings.TrimSpace(c.RawURL), "/")
	c.Branch = strings.TrimSpace(c.Branch)

	if c.Token == "" {
		return fmt.Errorf("%w: GITHUB_TOKEN is required", ErrConfig)
	}
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: GITHUB_REPO must be owner/name, got %q", ErrConfig, c.Repo)
	}
	if c.APIURL == "" {
		c.APIURL = "https://api.github.com"
	}
	if c.RawURL == "" {
		c.RawURL = "https://raw.githubusercontent.com"
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	return nil
}
