// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DataDir   string `yaml:"data_dir"` // Base directory for the cache database (always absolute)
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
	DevMode   bool   `yaml:"dev_mode"`

	RiskFreeRate    float64       `yaml:"risk_free_rate"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`

	FrontierWorkers          int     `yaml:"frontier_workers"`
	FrontierSeed             int64   `yaml:"frontier_seed"` // 0 seeds from the clock
	DefaultNumPortfolios     int     `yaml:"default_num_portfolios"`
	DefaultInitialInvestment float64 `yaml:"default_initial_investment"`

	PriceCacheTTL        time.Duration `yaml:"price_cache_ttl"`
	CacheCleanupSchedule string        `yaml:"cache_cleanup_schedule"`
	YahooBaseURL         string        `yaml:"yahoo_base_url"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		DataDir:                  "./data",
		Port:                     8001,
		LogLevel:                 "info",
		RiskFreeRate:             0.02,
		ProviderTimeout:          10 * time.Second,
		FrontierWorkers:          runtime.NumCPU(),
		DefaultNumPortfolios:     1000,
		DefaultInitialInvestment: 10_000_000,
		PriceCacheTTL:            5 * time.Minute,
		CacheCleanupSchedule:     "0 */15 * * * *",
		YahooBaseURL:             "https://query1.finance.yahoo.com",
	}
}

// Load reads configuration from .env, an optional YAML file named by
// ADVISOR_CONFIG, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Defaults()

	if path := getEnv("ADVISOR_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("ADVISOR_DATA_DIR", c.DataDir)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvAsBool("LOG_PRETTY", c.LogPretty)
	c.DevMode = getEnvAsBool("DEV_MODE", c.DevMode)
	c.RiskFreeRate = getEnvAsFloat("RISK_FREE_RATE", c.RiskFreeRate)
	c.ProviderTimeout = getEnvAsDuration("PROVIDER_TIMEOUT", c.ProviderTimeout)
	c.FrontierWorkers = getEnvAsInt("FRONTIER_WORKERS", c.FrontierWorkers)
	c.FrontierSeed = int64(getEnvAsInt("FRONTIER_SEED", int(c.FrontierSeed)))
	c.DefaultNumPortfolios = getEnvAsInt("DEFAULT_NUM_PORTFOLIOS", c.DefaultNumPortfolios)
	c.DefaultInitialInvestment = getEnvAsFloat("DEFAULT_INITIAL_INVESTMENT", c.DefaultInitialInvestment)
	c.PriceCacheTTL = getEnvAsDuration("PRICE_CACHE_TTL", c.PriceCacheTTL)
	c.CacheCleanupSchedule = getEnv("CACHE_CLEANUP_SCHEDULE", c.CacheCleanupSchedule)
	c.YahooBaseURL = getEnv("YAHOO_BASE_URL", c.YahooBaseURL)
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk free rate must not be negative, got %g", c.RiskFreeRate)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout)
	}
	if c.FrontierWorkers <= 0 {
		return fmt.Errorf("frontier workers must be positive, got %d", c.FrontierWorkers)
	}
	if c.DefaultNumPortfolios < 0 {
		return fmt.Errorf("default num portfolios must not be negative, got %d", c.DefaultNumPortfolios)
	}
	if c.DefaultInitialInvestment <= 0 {
		return fmt.Errorf("default initial investment must be positive, got %g", c.DefaultInitialInvestment)
	}
	if c.PriceCacheTTL < 0 {
		return fmt.Errorf("price cache ttl must not be negative, got %s", c.PriceCacheTTL)
	}
	if c.YahooBaseURL == "" {
		return fmt.Errorf("yahoo base url is required")
	}
	return nil
}

// CacheDBPath is the price-history cache database location.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
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
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
