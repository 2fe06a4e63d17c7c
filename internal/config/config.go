package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB     DBConfig
	JWT    JWTConfig
	OTP    OTPConfig
	OAuth  OAuthConfig
	Server ServerConfig
	Audit  AuditConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	AccessLifetime  time.Duration
	SessionLifetime time.Duration
}

type OTPConfig struct {
	CodeLength      int
	Lifetime        time.Duration
	ResendCooldown  time.Duration
	MaxAttempts     int
	DeliveryTimeout time.Duration
}

type OAuthConfig struct {
	GoogleEnabled      bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type ServerConfig struct {
	Port        string
	FrontendURL string
}

type AuditConfig struct {
	QueueSize int
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "jobport"),
			Password: getEnv("DB_PASSWORD", "jobport_secret"),
			Name:     getEnv("DB_NAME", "jobport"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			AccessLifetime:  getEnvAsDuration("JWT_ACCESS_LIFETIME", 15*time.Minute),
			SessionLifetime: getEnvAsDuration("SESSION_LIFETIME", 30*24*time.Hour),
		},
		OTP: OTPConfig{
			CodeLength:      getEnvAsInt("OTP_CODE_LENGTH", 6),
			Lifetime:        getEnvAsDuration("OTP_LIFETIME", 5*time.Minute),
			ResendCooldown:  getEnvAsDuration("OTP_RESEND_COOLDOWN", 60*time.Second),
			MaxAttempts:     getEnvAsInt("OTP_MAX_ATTEMPTS", 5),
			DeliveryTimeout: getEnvAsDuration("OTP_DELIVERY_TIMEOUT", 10*time.Second),
		},
		OAuth: OAuthConfig{
			GoogleEnabled:      getEnvAsBool("OAUTH_GOOGLE_ENABLED", false),
			GoogleClientID:     getEnv("OAUTH_GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("OAUTH_GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("OAUTH_GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/oauth/google/callback"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Audit: AuditConfig{
			QueueSize: getEnvAsInt("AUDIT_QUEUE_SIZE", 1000),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
