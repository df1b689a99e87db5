// Package config reads the blog's settings from the environment (optionally
// seeded from a .env file) and exposes the embedded name and version.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const (
	defaultPort           = 8080
	defaultSessionMaxAge  = 7 * 24 * 60 // minutes
	defaultSessionIdle    = 120         // minutes
	defaultLoginAttempts  = 10
	defaultAuditRetention = 90
	minSessionMinutes     = 1
)

// Config is built once at startup and handed to the web server, which threads
// it into services and controllers.
type Config struct {
	Listen   string
	Port     int
	CertFile string
	KeyFile  string

	Database *DatabaseConfig

	// Secret is the master key that cookie signing and encryption keys are
	// derived from. Empty means keys are generated per process.
	Secret string

	RedisAddr string

	SessionMaxAge time.Duration
	SessionIdle   time.Duration
	CookieSecure  bool

	AdminEmail    string
	AdminPassword string

	LoginAttemptsPerMinute int
	AuditRetentionDays     int
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

// LoadEnvFile merges a .env file from the working directory into the process
// environment. Variables already set win.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("BLOG_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("BLOG_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("BLOG_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/blog"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("BLOG_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

// Load reads every setting the server needs and validates it.
func Load() (*Config, error) {
	db, err := GetDatabaseConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Listen:        os.Getenv("BLOG_LISTEN"),
		CertFile:      os.Getenv("BLOG_CERT_FILE"),
		KeyFile:       os.Getenv("BLOG_KEY_FILE"),
		Database:      db,
		Secret:        os.Getenv("SECRET_KEY"),
		RedisAddr:     os.Getenv("BLOG_REDIS_ADDR"),
		AdminEmail:    os.Getenv("BLOG_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("BLOG_ADMIN_PASSWORD"),
	}

	if cfg.Port, err = getInt("BLOG_PORT", defaultPort); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("BLOG_PORT is not a valid port: %d", cfg.Port)
	}

	maxAge, err := getInt("BLOG_SESSION_MAX_AGE", defaultSessionMaxAge)
	if err != nil {
		return nil, err
	}
	idle, err := getInt("BLOG_SESSION_IDLE", defaultSessionIdle)
	if err != nil {
		return nil, err
	}
	if maxAge < minSessionMinutes || idle < minSessionMinutes {
		return nil, fmt.Errorf("session lifetimes must be at least %d minute", minSessionMinutes)
	}
	if idle > maxAge {
		return nil, errors.New("BLOG_SESSION_IDLE must not exceed BLOG_SESSION_MAX_AGE")
	}
	cfg.SessionMaxAge = time.Duration(maxAge) * time.Minute
	cfg.SessionIdle = time.Duration(idle) * time.Minute

	if cfg.CookieSecure, err = getBool("BLOG_COOKIE_SECURE", !IsDebug()); err != nil {
		return nil, err
	}
	if cfg.LoginAttemptsPerMinute, err = getInt("BLOG_LOGIN_ATTEMPTS", defaultLoginAttempts); err != nil {
		return nil, err
	}
	if cfg.AuditRetentionDays, err = getInt("BLOG_AUDIT_RETENTION_DAYS", defaultAuditRetention); err != nil {
		return nil, err
	}

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.New("BLOG_ADMIN_EMAIL and BLOG_ADMIN_PASSWORD must be set together")
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("BLOG_CERT_FILE and BLOG_KEY_FILE must be set together")
	}

	return cfg, nil
}

func getInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
