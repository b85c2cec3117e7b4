package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/example/availability-coordinator/internal/logging"
)

// Driver names returned by Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures environment driven configuration values for the coordinator service.
type Config struct {
	HTTPPort       int
	DatabaseURL    string
	IdentitySecret string
	RedisURL       string
	NotifyChannel  string
	SweepSchedule  string
	SweepGrace     time.Duration
	PublicBaseURL  string
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
}

// Load parses configuration values from the process environment. Each file in
// files is read with godotenv first; without files an optional ".env" in the
// working directory is used. Variables already set in the environment win.
//
// Missing and invalid keys are collected and reported together.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf(".env を読み込めません: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("設定ファイルを読み込めません: %w", err)
	}

	cfg := Config{
		HTTPPort:      8080,
		DatabaseURL:   "coordinator.db",
		NotifyChannel: "responses",
		SweepSchedule: "@every 15m",
		SweepGrace:    10 * time.Minute,
		PublicBaseURL: "http://localhost:8080",
		CORSOrigins:   []string{"*"},
		LogLevel:      "info",
		LogFormat:     "json",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, key("HTTP_PORT"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := env("DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if cfg.Driver() == DriverPostgres {
		if parsed, err := url.Parse(cfg.DatabaseURL); err != nil || parsed.Host == "" {
			invalid = append(invalid, key("DATABASE_URL"))
		}
	}

	if secret := env("IDENTITY_SECRET"); secret == "" {
		missing = append(missing, key("IDENTITY_SECRET"))
	} else {
		cfg.IdentitySecret = secret
	}

	if redisURL := env("REDIS_URL"); redisURL != "" {
		if parsed, err := url.Parse(redisURL); err != nil || (parsed.Scheme != "redis" && parsed.Scheme != "rediss") {
			invalid = append(invalid, key("REDIS_URL"))
		} else {
			cfg.RedisURL = redisURL
		}
	}
	if channel := env("NOTIFY_CHANNEL"); channel != "" {
		cfg.NotifyChannel = channel
	}

	if schedule := env("SWEEP_SCHEDULE"); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			invalid = append(invalid, key("SWEEP_SCHEDULE"))
		} else {
			cfg.SweepSchedule = schedule
		}
	}

	if graceValue := env("SWEEP_GRACE"); graceValue != "" {
		grace, err := time.ParseDuration(graceValue)
		if err != nil || grace <= 0 {
			invalid = append(invalid, key("SWEEP_GRACE"))
		} else {
			cfg.SweepGrace = grace
		}
	}

	if base := env("PUBLIC_BASE_URL"); base != "" {
		if parsed, err := url.Parse(base); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			invalid = append(invalid, key("PUBLIC_BASE_URL"))
		} else {
			cfg.PublicBaseURL = base
		}
	}

	if origins := env("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if level := env("LOG_LEVEL"); level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			invalid = append(invalid, key("LOG_LEVEL"))
		} else {
			cfg.LogLevel = level
		}
	}
	if format := strings.ToLower(env("LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, key("LOG_FORMAT"))
		} else {
			cfg.LogFormat = format
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Driver reports which store DatabaseURL selects.
func (c Config) Driver() string {
	lower := strings.ToLower(c.DatabaseURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// SQLitePath returns the database file path for the SQLite driver.
func (c Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite://")
}

// Prefix is prepended to every environment variable name.
const Prefix = "COORDINATOR_"

func key(name string) string {
	return Prefix + name
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(key(name)))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
