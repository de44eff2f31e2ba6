/**
 * @description
 * Configuration loader for the AFX Dashboard Backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 * - standard "fmt": For error reporting
 *
 * @notes
 * - Fails fast if critical variables (Database URL) are missing.
 * - Engine constants (base price, volatility, reset hour) live here instead of
 *   compile-time globals so tests and deployments can vary them.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Engine EngineConfig
	Mining MiningConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// AuthConfig holds JWT validation settings
type AuthConfig struct {
	JWKSURL string // URL to fetch JSON Web Key Set for bearer token validation
}

// EngineConfig holds the tick engine parameters.
// Defaults reproduce the production AFX feed.
type EngineConfig struct {
	BasePrice      float64       // opening price on a cold start
	Volatility     float64       // half-width of the per-tick random bracket (fraction of price)
	MinDailyGrowth float64       // lower bound of the sampled daily growth target
	MaxDailyGrowth float64       // upper bound of the sampled daily growth target
	ResetHour      int           // hour of day (local) at which a new trading session may begin
	TickInterval   time.Duration // worker cadence between generated ticks
}

// MiningConfig holds reward claim settings
type MiningConfig struct {
	RewardAmount  float64
	HalvedReward  float64
	IntervalHours int
	HalvingDate   *time.Time // nil means no halving scheduled
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Auth: AuthConfig{
			JWKSURL: getEnv("AUTH_JWKS_URL", ""),
		},
		Engine: EngineConfig{
			BasePrice:      getEnvAsFloat("ENGINE_BASE_PRICE", 16.0),
			Volatility:     getEnvAsFloat("ENGINE_VOLATILITY", 0.10),
			MinDailyGrowth: getEnvAsFloat("ENGINE_MIN_DAILY_GROWTH", 0.026),
			MaxDailyGrowth: getEnvAsFloat("ENGINE_MAX_DAILY_GROWTH", 0.041),
			ResetHour:      getEnvAsInt("ENGINE_RESET_HOUR", 15),
			TickInterval:   time.Duration(getEnvAsInt("ENGINE_TICK_INTERVAL_SECONDS", 30)) * time.Second,
		},
		Mining: MiningConfig{
			RewardAmount:  getEnvAsFloat("MINING_REWARD_AMOUNT", 0.5),
			HalvedReward:  getEnvAsFloat("MINING_HALVED_REWARD", 0.15),
			IntervalHours: getEnvAsInt("MINING_INTERVAL_HOURS", 5),
			HalvingDate:   getEnvAsTime("MINING_HALVING_DATE"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables and sane engine bounds
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Engine.BasePrice <= 0 {
		return fmt.Errorf("ENGINE_BASE_PRICE must be positive")
	}
	if cfg.Engine.MinDailyGrowth > cfg.Engine.MaxDailyGrowth {
		return fmt.Errorf("ENGINE_MIN_DAILY_GROWTH must not exceed ENGINE_MAX_DAILY_GROWTH")
	}
	if cfg.Engine.ResetHour < 0 || cfg.Engine.ResetHour > 23 {
		return fmt.Errorf("ENGINE_RESET_HOUR must be between 0 and 23")
	}
	if cfg.Auth.JWKSURL == "" && cfg.Server.Env != "test" {
		// Warning: strictly required for Auth middleware
		fmt.Println("Warning: AUTH_JWKS_URL is missing. Auth middleware will fail.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as float
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as RFC3339 timestamp; returns nil when unset or invalid
func getEnvAsTime(key string) *time.Time {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	if value, err := time.Parse(time.RFC3339, valueStr); err == nil {
		return &value
	}
	return nil
}
