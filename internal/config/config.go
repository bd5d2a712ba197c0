package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Rate limiting: auth endpoints per client IP, writes per user
	RateLimitAuth   int
	RateLimitWrite  int
	RateLimitWindow time.Duration

	// Email (share notifications)
	EmailEnabled  bool
	EmailProvider string // "resend" or "smtp"
	EmailFrom     string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string

	// Observability (optional)
	SentryDSN string

	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "GoalBuddy"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development', 'production' or 'test'
		AppURL:  envRequired("APP_URL"), // Required: base URL for share links
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/goalbuddy.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 24*time.Hour),

		RateLimitAuth:   envInt("RATE_LIMIT_AUTH", 20),
		RateLimitWrite:  envInt("RATE_LIMIT_WRITE", 300),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		// Email
		EmailEnabled:  envBool("EMAIL_ENABLED", false),
		EmailProvider: envString("EMAIL_PROVIDER", "resend"),
		EmailFrom:     envString("EMAIL_FROM", "GoalBuddy <no-reply@example.com>"),
		ResendAPIKey:  envString("RESEND_API_KEY", ""),
		SMTPHost:      envString("SMTP_HOST", ""),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUser:      envString("SMTP_USER", ""),
		SMTPPass:      envString("SMTP_PASS", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction refuses to start with notifications switched on but no
// way to deliver them. Development falls back to logging emails.
func validateProduction(cfg *Config) {
	if !cfg.EmailEnabled {
		return
	}

	switch cfg.EmailProvider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			slog.Error("production deployment with EMAIL_ENABLED requires RESEND_API_KEY",
				"hint", "set EMAIL_ENABLED=false to log share notifications instead")
			os.Exit(1)
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			slog.Error("production deployment with EMAIL_ENABLED requires SMTP_HOST",
				"hint", "set EMAIL_ENABLED=false to log share notifications instead")
			os.Exit(1)
		}
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ExposeErrors reports whether 500 responses may carry the underlying error.
func (c *Config) ExposeErrors() bool {
	return c.AppEnv == "development" || c.AppEnv == "test"
}
