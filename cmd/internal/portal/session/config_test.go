package session

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("HOMEWORK_PORTAL_BASE_URL", "")
	t.Setenv("PHPSESSID", "  abc  ")
	t.Setenv("SCHOOL_USERNAME", "")
	t.Setenv("SCHOOL_PASSWORD", "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://bogazicisehirkolejiobs.com" {
		t.Fatalf("base url mismatch: %q", cfg.BaseURL)
	}
	if cfg.Token != "abc" {
		t.Fatalf("token not trimmed: %q", cfg.Token)
	}
	if cfg.EnvTTL != 2*time.Hour || cfg.LoginTTL != 4*time.Hour || cfg.HarvestTTL != 2*time.Hour {
		t.Fatalf("ttl defaults mismatch: %+v", cfg)
	}
	if cfg.ValidateTimeout != 10*time.Second {
		t.Fatalf("validate timeout mismatch: %v", cfg.ValidateTimeout)
	}
	if len(cfg.HarvestPaths) != 3 || cfg.HarvestPaths[2] != "/index.php" {
		t.Fatalf("harvest paths mismatch: %v", cfg.HarvestPaths)
	}
	if cfg.Credentials().Configured() {
		t.Fatalf("credentials should not be configured")
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("HOMEWORK_PORTAL_BASE_URL", "http://portal.test/")
	t.Setenv("SCHOOL_USERNAME", " student ")
	t.Setenv("SCHOOL_PASSWORD", "pw")
	t.Setenv("HOMEWORK_SESSION_LOGIN_TTL", "90m")
	t.Setenv("HOMEWORK_HARVEST_PATHS", " /a , ,/b")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "http://portal.test" {
		t.Fatalf("base url not normalized: %q", cfg.BaseURL)
	}
	if c := cfg.Credentials(); !c.Configured() || c.Username != "student" {
		t.Fatalf("credentials mismatch: %+v", c)
	}
	if cfg.LoginTTL != 90*time.Minute {
		t.Fatalf("login ttl mismatch: %v", cfg.LoginTTL)
	}
	if len(cfg.HarvestPaths) != 2 || cfg.HarvestPaths[1] != "/b" {
		t.Fatalf("harvest paths mismatch: %v", cfg.HarvestPaths)
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad duration", key: "HOMEWORK_SESSION_ENV_TTL", val: "soon"},
		{name: "negative ttl", key: "HOMEWORK_SESSION_HARVEST_TTL", val: "-1h"},
		{name: "zero timeout", key: "HOMEWORK_VALIDATE_TIMEOUT", val: "0s"},
		{name: "bad scheme", key: "HOMEWORK_PORTAL_BASE_URL", val: "ftp://portal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := LoadConfigFromEnv()
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}
