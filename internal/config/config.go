// Package config provides configuration management for the drive uploader
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Worker   WorkerConfig
	Drive    DriveConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
	IntegrationTTL time.Duration // TTL for cached tenant integration settings
}

// WorkerConfig holds upload worker configuration
type WorkerConfig struct {
	PollInterval time.Duration // Sleep between empty poll cycles (default: 2s)
	BatchSize    int           // Due jobs claimed per cycle (default: 5)
	StaleAfter   time.Duration // Age at which a claimed job is presumed abandoned (default: 10m)
	MaxAttempts  int           // Attempts before a job becomes terminally failed (default: 8)
	ErrorPause   time.Duration // Pause after an unexpected loop-level failure (default: 5s)
}

// DriveConfig holds Google Drive client configuration
type DriveConfig struct {
	BaseURL        string // API endpoint, overridable for tests
	UploadBaseURL  string // Upload endpoint, overridable for tests
	RequestTimeout time.Duration
	RequestsPerSec float64 // Client-side rate limit toward the Drive API
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "drive_uploader"),
				User:           getEnv("POSTGRES_USER", "uploader"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
				IntegrationTTL: getEnvAsDuration("REDIS_INTEGRATION_TTL", 30*time.Second),
			},
		},
		Worker: WorkerConfig{
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", 2*time.Second),
			BatchSize:    getEnvAsInt("WORKER_BATCH_SIZE", 5),
			StaleAfter:   getEnvAsDuration("WORKER_STALE_AFTER", 10*time.Minute),
			MaxAttempts:  getEnvAsInt("WORKER_MAX_ATTEMPTS", 8),
			ErrorPause:   getEnvAsDuration("WORKER_ERROR_PAUSE", 5*time.Second),
		},
		Drive: DriveConfig{
			BaseURL:        getEnv("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
			UploadBaseURL:  getEnv("DRIVE_UPLOAD_BASE_URL", "https://www.googleapis.com/upload/drive/v3"),
			RequestTimeout: getEnvAsDuration("DRIVE_REQUEST_TIMEOUT", 30*time.Second),
			RequestsPerSec: getEnvAsFloat("DRIVE_REQUESTS_PER_SEC", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
