// Package config loads runtime configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime configuration.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DBDriver   string
	DBPath     string
	DBURL      string
	DBMaxConns int

	SessionTTL           time.Duration
	SessionCookie        string
	SessionPruneInterval time.Duration
	SecureCookie         bool

	CORSOrigin string
	StaticDir  string

	AdminEmail    string
	AdminUser     string
	AdminPassword string

	ShutdownTimeout time.Duration
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.failed", "err", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() Config {
	appEnv := EnvString("APP_ENV", "development")

	cfg := Config{
		Port:     EnvString("PORT", "3000"),
		AppEnv:   appEnv,
		LogLevel: EnvString("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(EnvString("DB_DRIVER", "sqlite")),
		DBPath:     EnvString("DB_PATH", "expenses.db"),
		DBURL:      EnvString("DATABASE_URL", ""),
		DBMaxConns: EnvInt("DB_MAX_CONNS", 10),

		SessionTTL:           EnvDuration("SESSION_TTL", 10*time.Minute),
		SessionCookie:        EnvString("SESSION_COOKIE", "user_sid"),
		SessionPruneInterval: EnvDuration("SESSION_PRUNE_INTERVAL", 15*time.Minute),
		SecureCookie:         EnvBool("COOKIE_SECURE", appEnv == "production"),

		CORSOrigin: EnvString("CORS_ORIGIN", ""),
		StaticDir:  EnvString("STATIC_DIR", "web/static"),

		AdminEmail:    EnvString("ADMIN_EMAIL", ""),
		AdminUser:     EnvString("ADMIN_USER", ""),
		AdminPassword: EnvString("ADMIN_PASSWORD", ""),

		ShutdownTimeout: EnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.DBDriver == "postgres" && cfg.DBURL == "" {
		cfg.DBURL = postgresURLFromParts()
	}
	return cfg
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// postgresURLFromParts assembles a URL from the DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME
// variables.
func postgresURLFromParts() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", EnvString("DB_HOST", "localhost"), EnvInt("DB_PORT", 5432)),
		Path:   "/" + EnvString("DB_NAME", "expenses"),
	}
	user := EnvString("DB_USER", "postgres")
	if pw, ok := os.LookupEnv("DB_PASSWORD"); ok {
		u.User = url.UserPassword(user, pw)
	} else {
		u.User = url.User(user)
	}
	if mode := EnvString("DB_SSLMODE", ""); mode != "" {
		u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	}
	return u.String()
}

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// EnvBool reads a bool env var with a default.
func EnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvInt reads a positive int env var with a default.
func EnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// EnvDuration reads a duration env var with a default.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
