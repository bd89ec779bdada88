package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs from the environment. Load
// reads a local .env when present and falls back to defaults suitable for
// development everywhere except the JWT secret, which has no default.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	RedisDB     int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	SessionTTL time.Duration
	UserTTL    time.Duration
	JWTTTL     time.Duration

	MaxDistinctIPs int
	MaxLogins      int
	MaxNightLogins int
	LogRetainDays  int

	ResendAPIKey string
	EmailFrom    string
	AppBaseURL   string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envString("PORT", "8080"),
		DatabaseURL: envString("DATABASE_URL", ""),
		RedisAddr:   envString("REDIS_ADDR", "localhost:6379"),
		RedisDB:     envInt("REDIS_DB", 0),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", 30*24*time.Hour),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 90*24*time.Hour),
		ResetTokenTTL:   envDuration("RESET_TOKEN_TTL", time.Hour),

		SessionTTL: envDuration("SESSION_TTL", 30*24*time.Hour),
		UserTTL:    envDuration("USER_CACHE_TTL", 15*time.Minute),
		JWTTTL:     envDuration("JWT_CACHE_TTL", time.Hour),

		MaxDistinctIPs: envInt("ANOMALY_MAX_DISTINCT_IPS", 3),
		MaxLogins:      envInt("ANOMALY_MAX_LOGINS", 10),
		MaxNightLogins: envInt("ANOMALY_MAX_NIGHT_LOGINS", 2),
		LogRetainDays:  envInt("AUTH_LOG_RETAIN_DAYS", 90),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    envString("EMAIL_FROM", ""),
		AppBaseURL:   envString("APP_BASE_URL", "http://localhost:3000"),
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
