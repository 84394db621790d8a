package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// loaded from environment variables, no magic defaults for required fields.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Server   ServerConfig
	Scoring  ScoringConfig
}

// DatabaseConfig contains database connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Schema   string

	// MaxConns and MinConns size the pgx pool. scoring sweeps issue a
	// burst of per-constituent queries, so the ceiling matters more than
	// the floor.
	MaxConns int32
	MinConns int32
}

// RedisConfig contains the leaderboard cache connection parameters.
type RedisConfig struct {
	// URL is a redis connection url, e.g. redis://localhost:6379/0.
	// empty disables the cache; scoring still works without it.
	URL string
}

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// JWTSecret is the HMAC secret for API token validation
	JWTSecret string
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	Port string
}

// ScoringConfig contains the background sweep parameters.
type ScoringConfig struct {
	// SweepInterval is how often the scoring worker re-scores an
	// organization and regenerates its alerts.
	SweepInterval time.Duration

	// FiscalYearEndMonth and FiscalYearEndDay configure the organization's
	// fiscal calendar. defaults to June 30, the common university fiscal
	// year-end.
	FiscalYearEndMonth int
	FiscalYearEndDay   int
}

// ConnectionString returns the postgres connection string.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
		c.Schema,
	)
}

// FiscalYearEnd returns the configured fiscal year-end in the given year.
func (c ScoringConfig) FiscalYearEnd(year int) time.Time {
	return time.Date(year, time.Month(c.FiscalYearEndMonth), c.FiscalYearEndDay, 0, 0, 0, 0, time.UTC)
}

// Load reads configuration from environment variables.
// loads .env file if present, but doesn't fail if it's missing.
func Load() (*Config, error) {
	// try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}

	scoringConfig, err := loadScoringConfig()
	if err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}

	return &Config{
		Database: dbConfig,
		Redis:    RedisConfig{URL: os.Getenv("REDIS_URL")},
		Auth:     authConfig,
		Server:   ServerConfig{Port: getEnvOrDefault("PORT", "8080")},
		Scoring:  scoringConfig,
	}, nil
}

func loadAuthConfig() (AuthConfig, error) {
	config := AuthConfig{
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if config.JWTSecret == "" {
		return config, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "require"),
		Schema:   getEnvOrDefault("DB_SCHEMA", "steward"),
		MaxConns: 10,
		MinConns: 2,
	}

	// required fields must be set
	if config.User == "" {
		return config, errors.New("DB_USER is required")
	}
	if config.Password == "" {
		return config, errors.New("DB_PASSWORD is required")
	}
	if config.Name == "" {
		return config, errors.New("DB_NAME is required")
	}

	if raw := os.Getenv("DB_MAX_CONNS"); raw != "" {
		max, err := strconv.Atoi(raw)
		if err != nil || max < 1 {
			return config, errors.New("DB_MAX_CONNS must be a positive integer")
		}
		config.MaxConns = int32(max)
	}
	if raw := os.Getenv("DB_MIN_CONNS"); raw != "" {
		min, err := strconv.Atoi(raw)
		if err != nil || min < 0 {
			return config, errors.New("DB_MIN_CONNS must be a non-negative integer")
		}
		config.MinConns = int32(min)
	}
	if config.MinConns > config.MaxConns {
		return config, errors.New("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}

	return config, nil
}

func loadScoringConfig() (ScoringConfig, error) {
	config := ScoringConfig{
		SweepInterval:      6 * time.Hour,
		FiscalYearEndMonth: 6,
		FiscalYearEndDay:   30,
	}

	if raw := os.Getenv("SCORING_SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return config, fmt.Errorf("SCORING_SWEEP_INTERVAL: %w", err)
		}
		if interval <= 0 {
			return config, errors.New("SCORING_SWEEP_INTERVAL must be positive")
		}
		config.SweepInterval = interval
	}

	if raw := os.Getenv("FISCAL_YEAR_END_MONTH"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			return config, errors.New("FISCAL_YEAR_END_MONTH must be 1-12")
		}
		config.FiscalYearEndMonth = month
	}

	if raw := os.Getenv("FISCAL_YEAR_END_DAY"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil || day < 1 || day > 31 {
			return config, errors.New("FISCAL_YEAR_END_DAY must be 1-31")
		}
		config.FiscalYearEndDay = day
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
