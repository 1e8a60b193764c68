// Package config provides configuration management for the market scanner.
// It loads configuration from environment variables and .env files.
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
	Postgres PostgresConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Upstream UpstreamConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// PostgresConfig holds the durable cache store configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// DSN returns the pgx connection string
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Database, c.MaxConnections)
}

// RedisConfig holds the hot cache configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the host:port address for the Redis client
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// CacheConfig holds the TTL policy for cached aggregation results.
// Synthesized payloads and not-found markers get a shorter TTL so a retry
// against upstream happens sooner than normal.
type CacheConfig struct {
	MarketTTL    time.Duration
	ListingTTL   time.Duration
	SyntheticTTL time.Duration
	NotFoundTTL  time.Duration
}

// UpstreamConfig holds listing-provider configuration. An empty APIKey means
// no credentials are configured and the aggregator synthesizes immediately.
type UpstreamConfig struct {
	APIKey            string
	BaseURL           string
	Host              string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	ResultLimit       int
	BulkCallDelay     time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			Host:           getEnv("POSTGRES_HOST", "localhost"),
			Port:           getEnv("POSTGRES_PORT", "5432"),
			Database:       getEnv("POSTGRES_DB", "home_scanner"),
			User:           getEnv("POSTGRES_USER", "scanner"),
			Password:       getEnv("POSTGRES_PASSWORD", ""),
			MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			MarketTTL:    getEnvAsDuration("CACHE_MARKET_TTL", 24*time.Hour),
			ListingTTL:   getEnvAsDuration("CACHE_LISTING_TTL", 24*time.Hour),
			SyntheticTTL: getEnvAsDuration("CACHE_SYNTHETIC_TTL", 6*time.Hour),
			NotFoundTTL:  getEnvAsDuration("CACHE_NOT_FOUND_TTL", 6*time.Hour),
		},
		Upstream: UpstreamConfig{
			APIKey:            getEnv("LISTING_API_KEY", ""),
			BaseURL:           getEnv("LISTING_API_BASE_URL", "https://listing-data.p.rapidapi.com"),
			Host:              getEnv("LISTING_API_HOST", "listing-data.p.rapidapi.com"),
			RequestTimeout:    getEnvAsDuration("LISTING_API_TIMEOUT", 12*time.Second),
			RequestsPerSecond: getEnvAsFloat("LISTING_API_RPS", 2.0),
			ResultLimit:       getEnvAsInt("LISTING_API_RESULT_LIMIT", 50),
			BulkCallDelay:     getEnvAsDuration("BULK_CALL_DELAY", 400*time.Millisecond),
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
