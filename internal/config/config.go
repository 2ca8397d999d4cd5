/*
Package config loads the service configuration from the environment.
A local .env file is picked up automatically through godotenv.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int

	// AppEnv switches logging to a human-readable console writer when "local".
	AppEnv   string
	LogLevel zerolog.Level

	// Gemini settings for the external risk-assessment model.
	GeminiAPIKey         string
	GeminiModel          string
	GeminiBaseURL        string
	GeminiTimeout        time.Duration
	GeminiMaxRetries     int
	GeminiInitialBackoff time.Duration

	// SessionSecret signs the session cookie.
	SessionSecret    string
	SessionCacheSize int

	// Per-client limits on the assessment endpoint.
	RateLimitRPS   float64
	RateLimitBurst int
}

const (
	defaultPort             = 8080
	defaultModel            = "gemini-3-pro-preview"
	defaultBaseURL          = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout          = 30 * time.Second
	defaultMaxRetries       = 3
	defaultInitialBackoff   = 1 * time.Second
	defaultSessionCacheSize = 1024
	defaultRateLimitRPS     = 0.2
	defaultRateLimitBurst   = 3
)

// Load reads the configuration from environment variables, applying defaults
// where a value is missing or malformed. A missing GEMINI_API_KEY is an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvInt("PORT", defaultPort),
		AppEnv:               getEnv("APP_ENV", "production"),
		LogLevel:             parseLevel(getEnv("LOG_LEVEL", "info")),
		GeminiAPIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:          getEnv("GEMINI_MODEL", defaultModel),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", defaultBaseURL),
		GeminiTimeout:        getEnvDuration("GEMINI_TIMEOUT", defaultTimeout),
		GeminiMaxRetries:     getEnvInt("GEMINI_MAX_RETRIES", defaultMaxRetries),
		GeminiInitialBackoff: getEnvDuration("GEMINI_INITIAL_BACKOFF", defaultInitialBackoff),
		SessionSecret:        os.Getenv("SESSION_SECRET"),
		SessionCacheSize:     getEnvInt("SESSION_CACHE_SIZE", defaultSessionCacheSize),
		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", defaultRateLimitRPS),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", defaultRateLimitBurst),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set")
	}

	return cfg, nil
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
