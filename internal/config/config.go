// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AlgoGators/algosystem/internal/modules/metrics"
	"github.com/AlgoGators/algosystem/internal/modules/risk"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when ALGOSYSTEM_CONFIG is unset. A missing file is not an error.
const DefaultConfigFile = "algosystem.yaml"

// Config holds application configuration
type Config struct {
	DataDir      string `yaml:"data_dir"` // Directory holding runs.db (always absolute after Load)
	Port         int    `yaml:"port"`
	LogLevel     string `yaml:"log_level"`
	DevMode      bool   `yaml:"dev_mode"`
	SweepWorkers int    `yaml:"sweep_workers"` // 0 means GOMAXPROCS

	Analytics AnalyticsConfig `yaml:"analytics"`
	Retention RetentionConfig `yaml:"retention"`
}

// AnalyticsConfig holds the defaults threaded into the metric and risk engines
type AnalyticsConfig struct {
	PeriodsPerYear    int     `yaml:"periods_per_year"`
	RiskFreeRate      float64 `yaml:"risk_free_rate"`
	VaRConfidence     float64 `yaml:"var_confidence"`
	MonteCarloSamples int     `yaml:"monte_carlo_samples"`
	MonteCarloSeed    uint64  `yaml:"monte_carlo_seed"` // 0 seeds from the clock
}

// RetentionConfig controls pruning of stored analysis runs
type RetentionConfig struct {
	Days int    `yaml:"days"` // 0 disables pruning
	Cron string `yaml:"cron"` // six-field cron spec (with seconds)
}

// Defaults returns the configuration used when neither file nor environment set a value
func Defaults() Config {
	return Config{
		DataDir:  "./data",
		Port:     8001,
		LogLevel: "info",
		Analytics: AnalyticsConfig{
			PeriodsPerYear:    metrics.DefaultPeriodsPerYear,
			RiskFreeRate:      metrics.DefaultRiskFreeRate,
			VaRConfidence:     risk.DefaultConfidence,
			MonteCarloSamples: risk.DefaultSamples,
		},
		Retention: RetentionConfig{
			Days: 90,
			Cron: "0 0 3 * * *",
		},
	}
}

// Load reads configuration from the YAML file, then applies environment overrides
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Defaults()

	path := getEnv("ALGOSYSTEM_CONFIG", DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
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

	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("ALGOSYSTEM_DATA_DIR", c.DataDir)
	c.Port = getEnvAsInt("GO_PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DevMode = getEnvAsBool("DEV_MODE", c.DevMode)
	c.SweepWorkers = getEnvAsInt("SWEEP_WORKERS", c.SweepWorkers)

	c.Analytics.PeriodsPerYear = getEnvAsInt("PERIODS_PER_YEAR", c.Analytics.PeriodsPerYear)
	c.Analytics.RiskFreeRate = getEnvAsFloat("RISK_FREE_RATE", c.Analytics.RiskFreeRate)
	c.Analytics.VaRConfidence = getEnvAsFloat("VAR_CONFIDENCE", c.Analytics.VaRConfidence)
	c.Analytics.MonteCarloSamples = getEnvAsInt("MONTE_CARLO_SAMPLES", c.Analytics.MonteCarloSamples)
	c.Analytics.MonteCarloSeed = getEnvAsUint64("MONTE_CARLO_SEED", c.Analytics.MonteCarloSeed)

	c.Retention.Days = getEnvAsInt("RUN_RETENTION_DAYS", c.Retention.Days)
	c.Retention.Cron = getEnv("RETENTION_CRON", c.Retention.Cron)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.Analytics.PeriodsPerYear <= 0 {
		return fmt.Errorf("analytics.periods_per_year must be positive, got %d", c.Analytics.PeriodsPerYear)
	}
	if c.Analytics.VaRConfidence <= 0 || c.Analytics.VaRConfidence >= 1 {
		return fmt.Errorf("analytics.var_confidence must be in (0, 1), got %g", c.Analytics.VaRConfidence)
	}
	if c.Analytics.MonteCarloSamples <= 0 {
		return fmt.Errorf("analytics.monte_carlo_samples must be positive, got %d", c.Analytics.MonteCarloSamples)
	}
	if c.SweepWorkers < 0 {
		return fmt.Errorf("sweep_workers must not be negative, got %d", c.SweepWorkers)
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days must not be negative, got %d", c.Retention.Days)
	}
	if c.Retention.Days > 0 && c.Retention.Cron == "" {
		return fmt.Errorf("retention.cron is required when retention is enabled")
	}
	return nil
}

// MetricsOptions returns the metric engine settings
func (c *Config) MetricsOptions() metrics.Options {
	return metrics.Options{
		PeriodsPerYear: c.Analytics.PeriodsPerYear,
		RiskFreeRate:   c.Analytics.RiskFreeRate,
	}
}

// RunsDBPath returns the location of the analysis run database
func (c *Config) RunsDBPath() string {
	return filepath.Join(c.DataDir, "runs.db")
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

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
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
