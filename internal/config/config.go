package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB        DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	DeepSeek  DeepSeekConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig

	CORSOrigins []string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SessionConfig controls where confirmation sessions live and for how long.
type SessionConfig struct {
	Backend       string
	TTL           time.Duration
	SweepInterval time.Duration
}

// DeepSeekConfig configures the remote parameter extractor. An empty APIKey
// disables it.
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AdminConfig holds the single analytics admin account.
type AdminConfig struct {
	Username     string
	PasswordHash string
	TokenTTL     time.Duration
}

// RateLimitConfig limits /api/query and /api/confirm per client IP.
// A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// A missing .env is fine; production relies on the real environment.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8000")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// DeepSeek
	cfg.DeepSeek = DeepSeekConfig{
		APIKey:  getEnv("DEEPSEEK_API_KEY", ""),
		BaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
		Model:   getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
	}

	// Admin
	cfg.Admin = AdminConfig{
		Username:     getEnv("ADMIN_USERNAME", "admin"),
		PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	// Rate limit
	rps, err := getEnvFloat("QUERY_RATE_LIMIT", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid QUERY_RATE_LIMIT: %w", err)
	}
	cfg.RateLimit = RateLimitConfig{RPS: rps, Burst: getEnvInt("QUERY_RATE_BURST", 10)}

	// Durations
	cfg.Session.Backend = strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendRedis))
	if cfg.Session.TTL, err = parseDurationEnv("SESSION_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.Session.SweepInterval, err = parseDurationEnv("SESSION_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL: %w", err)
	}
	if cfg.DeepSeek.Timeout, err = parseDurationEnv("EXTRACTOR_TIMEOUT", "3s"); err != nil {
		return nil, fmt.Errorf("invalid EXTRACTOR_TIMEOUT: %w", err)
	}
	if cfg.Admin.TokenTTL, err = parseDurationEnv("ADMIN_TOKEN_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TOKEN_TTL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
		return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	switch c.Session.Backend {
	case SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionBackendRedis, SessionBackendMemory, c.Session.Backend)
	}
	if c.Session.TTL == 0 {
		return errors.New("SESSION_TTL must be greater than zero")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("QUERY_RATE_LIMIT and QUERY_RATE_BURST must not be negative")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
