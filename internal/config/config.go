package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job board.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Admin        AdminConfig
	Session      SessionConfig
	Intake       IntakeConfig
	Notification NotificationConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RequestsPerSec  float64 // per client IP, 0 disables throttling
	Burst           int
}

// DatabaseConfig selects the persistence gateway.
type DatabaseConfig struct {
	Driver       string // "sqlite", "postgres" or "memory"
	Path         string // sqlite file
	DSN          string // postgres connection string
	MaxOpenConns int
	MaxIdleConns int
}

// AdminConfig is the static admin credential.
type AdminConfig struct {
	Email      string
	Password   string
	SessionTTL time.Duration
}

// SessionConfig selects where admin sessions live.
type SessionConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// IntakeConfig tunes the application intake rules.
type IntakeConfig struct {
	DailyLimit      int
	MaxResumeBytes  int64
	EnforceCapacity bool
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type           string // "log", "slack" or "none"
	WebhookURL     string // required if type is "slack"
	Timeout        time.Duration
	Retries        int
	RetryBaseDelay time.Duration
}

const (
	defaultAddr           = ":8080"
	defaultSQLitePath     = "jobboard.db"
	defaultDailyLimit     = 5
	defaultMaxResumeBytes = 5 << 20
	slackWebhookPrefix    = "https://hooks.slack.com/"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Server struct {
		Addr            string   `yaml:"addr"`
		ReadTimeout     string   `yaml:"read_timeout"`
		WriteTimeout    string   `yaml:"write_timeout"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
		CORSOrigins     []string `yaml:"cors_origins"`
		RequestsPerSec  float64  `yaml:"requests_per_second"`
		Burst           int      `yaml:"burst"`
	} `yaml:"server"`
	Database struct {
		Driver       string `yaml:"driver"`
		Path         string `yaml:"path"`
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`
	Admin struct {
		Email      string `yaml:"email"`
		Password   string `yaml:"password"`
		SessionTTL string `yaml:"session_ttl"`
	} `yaml:"admin"`
	Session struct {
		Backend       string `yaml:"backend"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		KeyPrefix     string `yaml:"key_prefix"`
	} `yaml:"session"`
	Intake struct {
		DailyLimit      int   `yaml:"daily_limit"`
		MaxResumeBytes  int64 `yaml:"max_resume_bytes"`
		EnforceCapacity bool  `yaml:"enforce_capacity"`
	} `yaml:"intake"`
	Notification struct {
		Type           string `yaml:"type"`
		WebhookURL     string `yaml:"webhook_url"`
		Timeout        string `yaml:"timeout"`
		Retries        *int   `yaml:"retries"`
		RetryBaseDelay string `yaml:"retry_base_delay"`
	} `yaml:"notification"`
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var errs []error
	dur := func(field, value string, def time.Duration) time.Duration {
		if value == "" {
			return def
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s %q: %w", field, value, err))
			return def
		}
		return d
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            or(raw.Server.Addr, defaultAddr),
			ReadTimeout:     dur("server.read_timeout", raw.Server.ReadTimeout, 15*time.Second),
			WriteTimeout:    dur("server.write_timeout", raw.Server.WriteTimeout, 30*time.Second),
			ShutdownTimeout: dur("server.shutdown_timeout", raw.Server.ShutdownTimeout, 10*time.Second),
			CORSOrigins:     raw.Server.CORSOrigins,
			RequestsPerSec:  raw.Server.RequestsPerSec,
			Burst:           raw.Server.Burst,
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(or(raw.Database.Driver, "sqlite")),
			Path:         raw.Database.Path,
			DSN:          raw.Database.DSN,
			MaxOpenConns: raw.Database.MaxOpenConns,
			MaxIdleConns: raw.Database.MaxIdleConns,
		},
		Admin: AdminConfig{
			Email:      strings.TrimSpace(raw.Admin.Email),
			Password:   raw.Admin.Password,
			SessionTTL: dur("admin.session_ttl", raw.Admin.SessionTTL, 12*time.Hour),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(or(raw.Session.Backend, "memory")),
			RedisAddr:     raw.Session.RedisAddr,
			RedisPassword: raw.Session.RedisPassword,
			RedisDB:       raw.Session.RedisDB,
			KeyPrefix:     raw.Session.KeyPrefix,
		},
		Intake: IntakeConfig{
			DailyLimit:      raw.Intake.DailyLimit,
			MaxResumeBytes:  raw.Intake.MaxResumeBytes,
			EnforceCapacity: raw.Intake.EnforceCapacity,
		},
		Notification: NotificationConfig{
			Type:           strings.ToLower(or(raw.Notification.Type, "log")),
			WebhookURL:     raw.Notification.WebhookURL,
			Timeout:        dur("notification.timeout", raw.Notification.Timeout, 10*time.Second),
			Retries:        3,
			RetryBaseDelay: dur("notification.retry_base_delay", raw.Notification.RetryBaseDelay, time.Second),
		},
	}
	if raw.Notification.Retries != nil {
		cfg.Notification.Retries = *raw.Notification.Retries
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = defaultSQLitePath
	}
	if cfg.Intake.DailyLimit == 0 {
		cfg.Intake.DailyLimit = defaultDailyLimit
	}
	if cfg.Intake.MaxResumeBytes == 0 {
		cfg.Intake.MaxResumeBytes = defaultMaxResumeBytes
	}
	if cfg.Server.RequestsPerSec > 0 && cfg.Server.Burst == 0 {
		cfg.Server.Burst = int(cfg.Server.RequestsPerSec) + 1
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required when driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or memory, got %q", cfg.Database.Driver)
	}

	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return fmt.Errorf("admin.email and admin.password are required")
	}
	if cfg.Admin.SessionTTL <= 0 {
		return fmt.Errorf("admin.session_ttl must be positive, got %v", cfg.Admin.SessionTTL)
	}

	switch cfg.Session.Backend {
	case "memory":
	case "redis":
		if cfg.Session.RedisAddr == "" {
			return fmt.Errorf("session.redis_addr is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("session.backend must be memory or redis, got %q", cfg.Session.Backend)
	}

	if cfg.Intake.DailyLimit < 1 {
		return fmt.Errorf("intake.daily_limit must be at least 1, got %d", cfg.Intake.DailyLimit)
	}
	if cfg.Intake.MaxResumeBytes < 1 {
		return fmt.Errorf("intake.max_resume_bytes must be positive, got %d", cfg.Intake.MaxResumeBytes)
	}

	if cfg.Server.RequestsPerSec < 0 {
		return fmt.Errorf("server.requests_per_second must not be negative")
	}

	switch cfg.Notification.Type {
	case "log", "none":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be log, slack or none, got %q", cfg.Notification.Type)
	}
	if cfg.Notification.Retries < 0 {
		return fmt.Errorf("notification.retries must not be negative")
	}

	return nil
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
