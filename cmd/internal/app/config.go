package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrConfig is returned for invalid runtime configuration.
var ErrConfig = errors.New("app: invalid config")

// Record store backends.
const (
	RecordsCSV      = "csv"
	RecordsPostgres = "postgres"
	RecordsMemory   = "memory"
)

// Blob store backends.
const (
	BlobFile   = "file"
	BlobGitHub = "github"
)

// Config contains the runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr    string `env:"HOMEWORK_HTTP_ADDR"    envDefault:"0.0.0.0:8080"`
	LogLevel    string `env:"HOMEWORK_LOG_LEVEL"    envDefault:"info"`
	LogFormat   string `env:"HOMEWORK_LOG_FORMAT"   envDefault:"auto"`
	ServiceName string `env:"HOMEWORK_SERVICE_NAME" envDefault:"homeworksync"`

	ReadHeaderTimeout time.Duration `env:"HOMEWORK_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HOMEWORK_HTTP_READ_TIMEOUT"        envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HOMEWORK_HTTP_WRITE_TIMEOUT"       envDefault:"2m"`
	IdleTimeout       time.Duration `env:"HOMEWORK_HTTP_IDLE_TIMEOUT"        envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"HOMEWORK_HTTP_SHUTDOWN_TIMEOUT"    envDefault:"10s"`
	MaxHeaderBytes    int           `env:"HOMEWORK_HTTP_MAX_HEADER_BYTES"    envDefault:"1048576"`

	DatabaseURL string `env:"HOMEWORK_DATABASE_URL"`
	DBMaxConns  int32  `env:"HOMEWORK_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"HOMEWORK_DB_MIN_CONNS" envDefault:"0"`
	DBSchema    string `env:"HOMEWORK_DB_SCHEMA"    envDefault:"homeworksync"`

	// ReadinessRequireDB makes /readyz fail unless a database is configured and reachable.
	ReadinessRequireDB bool `env:"HOMEWORK_READINESS_REQUIRE_DB"`

	Records string `env:"HOMEWORK_RECORDS"   envDefault:"csv"`
	Blob    string `env:"HOMEWORK_BLOB"      envDefault:"file"`
	DataDir string `env:"HOMEWORK_DATA_DIR"  envDefault:"data"`
	CSVPath string `env:"HOMEWORK_CSV_PATH"  envDefault:"homework_report.csv"`

	// SyncInterval schedules background syncs while serving. Zero disables the scheduler.
	SyncInterval time.Duration `env:"HOMEWORK_SYNC_INTERVAL" envDefault:"0s"`

	// OTelEndpoint enables tracing export when set.
	OTelEndpoint string `env:"HOMEWORK_OTEL_ENDPOINT"`

	CORSAllowedOrigins   []string `env:"HOMEWORK_CORS_ALLOWED_ORIGINS" envSeparator:","`
	CORSAllowCredentials bool     `env:"HOMEWORK_CORS_ALLOW_CREDENTIALS"`
	CORSMaxAgeSeconds    int      `env:"HOMEWORK_CORS_MAX_AGE_SECONDS" envDefault:"600"`

	// RequireFingerprintKey fails startup unless HOMEWORK_TOKEN_FINGERPRINT_KEY is set and well-sized.
	RequireFingerprintKey bool `env:"HOMEWORK_REQUIRE_FINGERPRINT_KEY"`
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes enum fields and rejects unknown backends.
func (c *Config) Validate() error {
	c.Records = strings.ToLower(strings.TrimSpace(c.Records))
	c.Blob = strings.ToLower(strings.TrimSpace(c.Blob))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	switch c.Records {
	case RecordsCSV, RecordsMemory:
	case RecordsPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("%w: HOMEWORK_RECORDS=postgres requires HOMEWORK_DATABASE_URL", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown HOMEWORK_RECORDS %q", ErrConfig, c.Records)
	}

	switch c.Blob {
	case BlobFile, BlobGitHub:
	default:
		return fmt.Errorf("%w: unknown HOMEWORK_BLOB %q", ErrConfig, c.Blob)
	}

	switch c.LogFormat {
	case "", "auto":
		c.LogFormat = "auto"
	case "json", "pretty":
	default:
		return fmt.Errorf("%w: unknown HOMEWORK_LOG_FORMAT %q", ErrConfig, c.LogFormat)
	}

	if c.SyncInterval < 0 {
		c.SyncInterval = 0
	}
	if c.DBMinConns < 0 {
		c.DBMinConns = 0
	}
	if c.CSVPath = strings.TrimSpace(c.CSVPath); c.CSVPath == "" {
		c.CSVPath = "homework_report.csv"
	}
	return nil
}
