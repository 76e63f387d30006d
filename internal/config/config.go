package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Push      PushConfig
	Trigger   TriggerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds access token configuration
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// SecurityConfig holds encryption keys and session policy
type SecurityConfig struct {
	// EncryptionKey protects device secrets and webhook HMAC secrets
	// at rest (AES-256-GCM, 32-byte hex).
	EncryptionKey string
	SessionExpiry time.Duration
}

// RateLimitConfig holds the fixed-window limiter policy
type RateLimitConfig struct {
	Window        time.Duration
	MaxRequests   int
	AnonymousMax  int
	CleanupPeriod time.Duration
}

// PushConfig holds the push dispatch endpoints
type PushConfig struct {
	SandboxURL    string
	ProductionURL string
	AuthToken     string
	Timeout       time.Duration
}

// TriggerConfig holds trigger pipeline limits
type TriggerConfig struct {
	MaxPayloadBytes int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "shortcutrelay"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("SECRET_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-byte hex string
			SessionExpiry: getEnvAsDuration("SESSION_EXPIRY", 30*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
			MaxRequests:   getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 60),
			AnonymousMax:  getEnvAsInt("RATE_LIMIT_ANONYMOUS_MAX", 10),
			CleanupPeriod: getEnvAsDuration("RATE_LIMIT_CLEANUP_PERIOD", 5*time.Minute),
		},
		Push: PushConfig{
			SandboxURL:    getEnv("PUSH_SANDBOX_URL", "https://api.sandbox.push.apple.com"),
			ProductionURL: getEnv("PUSH_PRODUCTION_URL", "https://api.push.apple.com"),
			AuthToken:     getEnv("PUSH_AUTH_TOKEN", ""),
			Timeout:       getEnvAsDuration("PUSH_TIMEOUT", 10*time.Second),
		},
		Trigger: TriggerConfig{
			MaxPayloadBytes: getEnvAsInt("TRIGGER_MAX_PAYLOAD_BYTES", 4096),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
