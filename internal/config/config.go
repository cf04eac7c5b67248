package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// SessionTTL is the inactivity window after which a USSD session is
	// considered abandoned. The gateway never signals hang-ups, so expiry
	// is the only way sessions ever end implicitly.
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// ServiceCode is the shortcode callers dial, used in user-facing copy
	// ("dial *384*4040# to start again").
	ServiceCode  string
	SupportPhone string

	SMSProvider string
	SMSSenderID string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SessionTTL:           getEnvAsDuration("SESSION_TTL", 15*time.Minute),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		ServiceCode:  getEnv("USSD_SERVICE_CODE", "*384*4040#"),
		SupportPhone: getEnv("SUPPORT_PHONE", "+250 791 640 062"),

		SMSProvider: strings.ToLower(strings.TrimSpace(getEnv("SMS_PROVIDER", "log"))),
		SMSSenderID: getEnv("SMS_SENDER_ID", "HOSP_QUICK"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
