package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string
	MemoryStore    bool
	MigrationsPath string
	LogLevel       string
	Port           string
	PrometheusPort string

	TelegramToken       string
	TelegramAdminChatID int64

	JWTSecret   string
	CORSOrigins []string

	MediaRoot      string
	MediaBaseURL   string
	TempDir        string
	MaxImageBytes  int64
	MaxImagePixels int64
	FetchTimeout   time.Duration

	ExtractorURL   string
	ExtractorToken string

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
	StatusCheckInterval  time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MemoryStore:    getEnvBool("MEMORY_STORE", false),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),

		MediaRoot:    getEnvOrDefault("MEDIA_ROOT", "static/uploads"),
		MediaBaseURL: strings.TrimRight(getEnvOrDefault("MEDIA_BASE_URL", "/uploads"), "/"),
		TempDir:      getEnvOrDefault("TEMP_DIR", os.TempDir()),

		ExtractorURL:   os.Getenv("EXTRACTOR_URL"),
		ExtractorToken: os.Getenv("EXTRACTOR_TOKEN"),
	}

	var err error
	if cfg.MaxImageBytes, err = getEnvInt64("MAX_IMAGE_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.MaxImagePixels, err = getEnvInt64("MAX_IMAGE_PIXELS", 50_000_000); err != nil {
		return nil, err
	}
	if cfg.TelegramAdminChatID, err = getEnvInt64("TELEGRAM_ADMIN_CHAT_ID", 0); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StatusCheckInterval, err = getEnvDuration("STATUS_CHECK_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	// Required environment variables
	if cfg.DatabaseURL == "" && !cfg.MemoryStore {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	if cfg.MaxImagePixels <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_PIXELS must be positive")
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
