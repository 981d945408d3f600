package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	SessionSecret  string
	JWTSecret      string
	JWTTTL         time.Duration
	UploadDir      string
	UploadMaxBytes int64
	CacheBackend   string // "lru" or "redis"
	CacheTTL       time.Duration
	CacheSize      int
	RedisAddr      string
	LogLevel       string
	TemplatesDir   string
	CORSOrigins    []string
	AdminEmail     string
	AdminPassword  string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, finding env vars from system")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),
		// Fallback for local dev if not set
		DatabaseURL:    getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=forumhub port=5432 sslmode=disable TimeZone=UTC"),
		SessionSecret:  getEnv("SESSION_SECRET", "secret_key_change_me"),
		JWTSecret:      getEnv("JWT_SECRET", "jwt_secret_change_me"),
		JWTTTL:         getDuration("JWT_TTL", 72*time.Hour),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxBytes: int64(getInt("UPLOAD_MAX_BYTES", 10*1024*1024)),
		CacheBackend:   getEnv("CACHE_BACKEND", "lru"),
		CacheTTL:       getDuration("CACHE_TTL", 5*time.Minute),
		CacheSize:      getInt("CACHE_SIZE", 500),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TemplatesDir:   getEnv("TEMPLATES_DIR", "./web/templates"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
