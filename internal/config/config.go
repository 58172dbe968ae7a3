// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and generated reports (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	// Market data provider
	AlphaVantageAPIKey string
	PriceSyncSchedule  string // cron spec for the price refresh job

	// Analysis defaults (overridable per request)
	RiskFreeRate      float64 // annual rate
	CVaRAlpha         float64 // significance level, must satisfy 0 < alpha < 1
	InitialInvestment float64 // must be positive

	// Report archive (optional - disabled when bucket is empty)
	S3Bucket           string
	S3Region           string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PORTFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8001),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AlphaVantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		PriceSyncSchedule:  getEnv("PRICE_SYNC_SCHEDULE", "30 22 * * MON-FRI"), // after US close, UTC
		RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.0),
		CVaRAlpha:          getEnvAsFloat("CVAR_ALPHA", 0.05),
		InitialInvestment:  getEnvAsFloat("INITIAL_INVESTMENT", 10000),
		S3Bucket:           getEnv("REPORT_S3_BUCKET", ""),
		S3Region:           getEnv("REPORT_S3_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the analysis defaults against the core's configuration
// surface: alpha in (0,1), positive initial investment.
func (c *Config) Validate() error {
	if c.CVaRAlpha <= 0 || c.CVaRAlpha >= 1 {
		return domain.InvalidConfigurationError{
			Reason: fmt.Sprintf("CVaR significance level must be in (0,1), got %v", c.CVaRAlpha),
		}
	}
	if c.InitialInvestment <= 0 {
		return domain.InvalidConfigurationError{
			Reason: fmt.Sprintf("initial investment must be positive, got %v", c.InitialInvestment),
		}
	}
	return nil
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
