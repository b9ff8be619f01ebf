package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the offline core
type Config struct {
	// Environment
	Environment string

	// AWS configuration
	AWSRegion        string
	DynamoDBTable    string
	CityIndexName    string
	StateIndexName   string
	CountryIndexName string
	GlobalIndexName  string

	// Device-local store
	RedisURL        string
	KeyPrefix       string
	GlobalCacheSize int

	// Feed
	FeedPageSize int

	// Offline queue
	QueueMaxAttempts int

	// Identity
	AuthWaitTimeout time.Duration

	// Connectivity
	ConnectivityInterval time.Duration

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable:    getEnv("TABLE_NAME", "feelings"),
		CityIndexName:    getEnv("CITY_INDEX_NAME", "CityIndex"),
		StateIndexName:   getEnv("STATE_INDEX_NAME", "StateIndex"),
		CountryIndexName: getEnv("COUNTRY_INDEX_NAME", "CountryIndex"),
		GlobalIndexName:  getEnv("GLOBAL_INDEX_NAME", "GlobalIndex"),

		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		KeyPrefix:       getEnv("KEY_PREFIX", "feelings:"),
		GlobalCacheSize: getEnvInt("GLOBAL_CACHE_SIZE", 50),

		FeedPageSize: getEnvInt("FEED_PAGE_SIZE", 20),

		QueueMaxAttempts: getEnvInt("QUEUE_MAX_ATTEMPTS", 3),

		AuthWaitTimeout:      getEnvDuration("AUTH_WAIT_TIMEOUT", 3*time.Second),
		ConnectivityInterval: getEnvDuration("CONNECTIVITY_INTERVAL", 15*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required")
	}
	if c.GlobalCacheSize <= 0 {
		return fmt.Errorf("GLOBAL_CACHE_SIZE must be positive")
	}
	if c.QueueMaxAttempts <= 0 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be positive")
	}
	if c.Environment == "production" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
