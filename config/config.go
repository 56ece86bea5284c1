package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pats-app-go/logging"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Application configuration
	App AppConfig `json:"app"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string `json:"port"`
	Host        string `json:"host"`
	Environment string `json:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Database string        `json:"database"`
	Timeout  time.Duration `json:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Prefix      string `json:"prefix"`
	EnableColor bool   `json:"enable_color"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	StandingsCacheTTL time.Duration `json:"standings_cache_ttl"`
	SeasonID          string        `json:"season_id"`
	IsDevelopment     bool          `json:"is_development"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Don't treat missing .env as an error
		logging.Debugf("Could not load .env file: %v", err)
	}

	environment := getEnv("ENVIRONMENT", "development")
	isDevelopment := strings.ToLower(environment) == "development"

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Environment: environment,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", "patsapp"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pats_app"),
			Timeout:  getDurationEnv("DB_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Prefix:      getEnv("LOG_PREFIX", "pats-app"),
			EnableColor: getBoolEnv("LOG_COLOR", true),
		},
		App: AppConfig{
			StandingsCacheTTL: getDurationEnv("STANDINGS_CACHE_TTL", 60*time.Second),
			SeasonID:          getEnv("SEASON_ID", ""),
			IsDevelopment:     isDevelopment,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for obviously broken values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name must not be empty")
	}
	if c.App.StandingsCacheTTL <= 0 {
		return fmt.Errorf("standings cache TTL must be positive, got %v", c.App.StandingsCacheTTL)
	}
	return nil
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv returns the environment variable as a bool or a default
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warnf("Invalid boolean for %s: %q, using default %t", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getDurationEnv returns the environment variable as a duration or a default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warnf("Invalid duration for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
