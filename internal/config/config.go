package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Config is read from the environment only. Secrets never have defaults.
type Config struct {
	Addr string `env:"API_ADDR" env-default:":5000"`

	// StorageDriver selects the backend. Empty means postgres when
	// DATABASE_URL is set and memory otherwise.
	StorageDriver     string `env:"STORAGE_DRIVER" env-default:""`
	DatabaseURL       string `env:"DATABASE_URL" env-default:""`
	SQLitePath        string `env:"SQLITE_PATH" env-default:"./data/costlaw.db"`
	MigrationsDir     string `env:"MIGRATIONS_DIR" env-default:"./db/migrations"`
	CasesSnapshotPath string `env:"CASES_SNAPSHOT_PATH" env-default:"./data/cases.json"`
	SeedData          bool   `env:"SEED_DATA" env-default:"true"`

	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" env-default:"168h"`
	CookieSecure bool          `env:"COOKIE_SECURE" env-default:"false"`
	CORSOrigin   string        `env:"CORS_ORIGIN" env-default:"*"`
	SiteURL      string        `env:"SITE_URL" env-default:"https://costlawyer.co.uk"`

	Admin AdminConfig

	DiscordWebhookURL        string        `env:"DISCORD_WEBHOOK_URL" env-default:""`
	ContactNotificationEmail string        `env:"CONTACT_NOTIFICATION_EMAIL" env-default:"william@costlawyer.co.uk"`
	NotifyTimeout            time.Duration `env:"NOTIFY_TIMEOUT" env-default:"15s"`
	SMTP                     SMTPConfig

	// RedisURL enables shared token revocation. Empty keeps revocations in
	// process memory.
	RedisURL string `env:"REDIS_URL" env-default:""`

	MeiliURL       string `env:"MEILI_URL" env-default:""`
	MeiliMasterKey string `env:"MEILI_MASTER_KEY"`

	Snapshot SnapshotConfig

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`
}

// AdminConfig describes the account ensured at startup.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME" env-default:"admin"`
	Password string `env:"ADMIN_PASSWORD"`
	Email    string `env:"ADMIN_EMAIL" env-default:"admin@costlawyer.co.uk"`
	Name     string `env:"ADMIN_NAME" env-default:"Administrator"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-default:""`
	Port     string `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USER" env-default:""`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" env-default:"no-reply@costlawyer.co.uk"`
	FromName string `env:"SMTP_FROM_NAME" env-default:"Mackenzie Costs Website"`
}

// SnapshotConfig points the case snapshot mirror at an S3-compatible bucket.
// The mirror is disabled unless both Bucket and Endpoint are set.
type SnapshotConfig struct {
	Bucket    string `env:"SNAPSHOT_BUCKET" env-default:""`
	Endpoint  string `env:"MINIO_ENDPOINT" env-default:""`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"true"`
	History   bool   `env:"SNAPSHOT_HISTORY" env-default:"false"`
}

func (s SnapshotConfig) Enabled() bool {
	return s.Bucket != "" && s.Endpoint != ""
}

func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadStorage reads the environment but only validates the storage
// settings. Offline tools that never issue tokens use it.
func LoadStorage() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validateStorage(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func read() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = DriverMemory
		if cfg.DatabaseURL != "" {
			cfg.StorageDriver = DriverPostgres
		}
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func (c Config) validateStorage() error {
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORAGE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

func (c Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.Port != "" && c.SMTP.From != ""
}

// Usage describes every recognised environment variable.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
