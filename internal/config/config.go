package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Booking workflow configuration
	Booking BookingConfig

	// Mail (notification transport) configuration
	Mail MailConfig

	// Event relay configuration
	Relay RelayConfig

	// Redis fan-out configuration
	Redis RedisConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// BookingConfig holds booking transaction configuration
type BookingConfig struct {
	// TxTimeout bounds every booking transaction; timeouts surface as
	// transient errors so callers can retry.
	TxTimeout time.Duration
	// MaxSeatsPerBooking caps a single reservation
	MaxSeatsPerBooking int
}

// MailConfig holds notification transport configuration
type MailConfig struct {
	Mode        string // "dev" logs instead of sending; "production" uses the HTTP gateway
	APIURL      string
	Username    string
	Password    string
	Sender      string
	MaxAttempts int
	RetryDelay  time.Duration
}

// RelayConfig holds event relay configuration
type RelayConfig struct {
	Mode         string // "push" (LISTEN/NOTIFY) or "poll" (interval re-fetch)
	Channel      string // postgres notification channel name
	PollInterval time.Duration
	PollLimit    int
}

// RedisConfig holds the optional cross-instance fan-out configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Channel  string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Booking: BookingConfig{
			TxTimeout:          time.Duration(getEnvAsInt("BOOKING_TX_TIMEOUT_MS", 5000)) * time.Millisecond,
			MaxSeatsPerBooking: getEnvAsInt("BOOKING_MAX_SEATS", 10),
		},
		Mail: MailConfig{
			Mode:        getEnv("MAIL_MODE", "dev"),
			APIURL:      getEnv("MAIL_API_URL", ""),
			Username:    getEnv("MAIL_USERNAME", ""),
			Password:    getEnv("MAIL_PASSWORD", ""),
			Sender:      getEnv("MAIL_SENDER", "bookings@routewise.example"),
			MaxAttempts: getEnvAsInt("MAIL_MAX_ATTEMPTS", 1),
			RetryDelay:  time.Duration(getEnvAsInt("MAIL_RETRY_DELAY_MS", 500)) * time.Millisecond,
		},
		Relay: RelayConfig{
			Mode:         getEnv("RELAY_MODE", "push"),
			Channel:      getEnv("RELAY_CHANNEL", "booking_events"),
			PollInterval: time.Duration(getEnvAsInt("RELAY_POLL_INTERVAL_SECONDS", 30)) * time.Second,
			PollLimit:    getEnvAsInt("RELAY_POLL_LIMIT", 50),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_EVENT_CHANNEL", "booking_events"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Relay.Mode != "push" && c.Relay.Mode != "poll" {
		return fmt.Errorf("invalid relay mode: %s (must be 'push' or 'poll')", c.Relay.Mode)
	}

	if c.Relay.Mode == "poll" && c.Relay.PollInterval <= 0 {
		return fmt.Errorf("RELAY_POLL_INTERVAL_SECONDS must be positive in poll mode")
	}

	if c.Mail.MaxAttempts < 1 {
		return fmt.Errorf("MAIL_MAX_ATTEMPTS must be at least 1")
	}

	// Validate mail gateway credentials only in production mode
	if c.Mail.Mode == "production" {
		if c.Mail.APIURL == "" {
			return fmt.Errorf("MAIL_API_URL is required in production mode")
		}

		if c.Mail.Username == "" || c.Mail.Password == "" {
			return fmt.Errorf("MAIL_USERNAME and MAIL_PASSWORD are required in production mode")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
