package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string // PostgreSQL; SQLite is used when empty
	SQLitePath  string
	RedisURL    string // Session store; in-memory when empty

	// Uploads
	UploadDir      string
	MaxUploadBytes int64
	UploadTimeout  time.Duration

	// Administration and sessions
	AdminID       string
	AdminPassword string
	SessionSecret []byte
	SessionTTL    time.Duration
	PasswordMode  string // "bcrypt" or "plaintext"

	CORSOrigins []string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getEnv("SQLITE_PATH", "roomboard.db"),
		RedisURL:       os.Getenv("REDIS_URL"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 16<<20),
		UploadTimeout:  getEnvDuration("UPLOAD_TIMEOUT", 2*time.Minute),
		AdminID:        os.Getenv("ADMIN_ID"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = []byte(secret)
	}

	defaultMode := "plaintext"
	if cfg.Env == "production" {
		defaultMode = "bcrypt"
	}
	cfg.PasswordMode = getEnv("PASSWORD_MODE", defaultMode)

	if cfg.Env == "production" {
		if len(cfg.SessionSecret) == 0 {
			panic("SESSION_SECRET is required in production")
		}
		if cfg.AdminID == "" || cfg.AdminPassword == "" {
			panic("ADMIN_ID and ADMIN_PASSWORD are required in production")
		}
		if cfg.PasswordMode == "plaintext" {
			panic("PASSWORD_MODE=plaintext is not allowed in production")
		}
	}

	// Development sessions do not survive a restart without a configured secret
	if len(cfg.SessionSecret) == 0 {
		cfg.SessionSecret = randomSecret()
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// splitList parses a comma-separated list, dropping blank entries.
func splitList(value string) []string {
	return lo.FilterMap(strings.Split(value, ","), func(entry string, _ int) (string, bool) {
		entry = strings.TrimSpace(entry)
		return entry, entry != ""
	})
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate session secret: " + err.Error())
	}
	return []byte(base64.RawURLEncoding.EncodeToString(b))
}
