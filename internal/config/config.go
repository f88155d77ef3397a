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
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Intake    IntakeConfig
	Ledger    LedgerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// IntakeConfig holds scan intake tuning for the kiosk
type IntakeConfig struct {
	// Quiet interval after which a buffered burst containing a separator
	// is treated as a complete scanner read.
	DebounceInterval time.Duration
	// Hold time in a terminal state before the next scan is accepted.
	SettleDelay time.Duration
}

// LedgerConfig holds remote ledger client configuration
type LedgerConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "5128"),
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "scanintake"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Intake: IntakeConfig{
			DebounceInterval: getEnvMillis("SCAN_DEBOUNCE_MS", 50),
			SettleDelay:      getEnvMillis("SCAN_SETTLE_MS", 500),
		},
		Ledger: LedgerConfig{
			BaseURL:        getEnv("LEDGER_BASE_URL", "http://localhost:5128"),
			RequestTimeout: getEnvMillis("LEDGER_TIMEOUT_MS", 10000),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvMillis reads an integer environment variable as milliseconds
func getEnvMillis(key string, defaultValue int64) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return time.Duration(defaultValue) * time.Millisecond
}
