package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Database      DatabaseConfig
	Azure         AzureConfig
	Providers     ProvidersConfig
	Access        AccessConfig
	Observability ObservabilityConfig
	Environment   string
}

// DatabaseConfig holds Neon PostgreSQL configuration.
// ConnectionString (from NEON_DB_CONNECTION_STRING or DATABASE_URL) is the
// normal path; individual DB_* fields are a local-development fallback.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AzureConfig holds Azure AI Agents configuration
type AzureConfig struct {
	ProjectEndpoint string `validate:"required,url"`
	Deployment      string `validate:"required"` // model deployment name
	APIVersion      string
	Timeout         time.Duration
	PollInterval    time.Duration
}

// ProvidersConfig holds the third-party data provider configurations
type ProvidersConfig struct {
	AlphaVantage AlphaVantageConfig
	Serper       SerperConfig
}

// AlphaVantageConfig holds Alpha Vantage stock-quote API configuration
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// SerperConfig holds Serper web-search API configuration
type SerperConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AccessConfig holds role-file and resolver configuration
type AccessConfig struct {
	RoleFilePath    string `validate:"required"`
	UnknownRoleMode string `validate:"oneof=ignore reject"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

var validate = validator.New()

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Database:    loadDatabaseConfig(),
		Azure: AzureConfig{
			ProjectEndpoint: getEnv("PROJECT_ENDPOINT", getEnv("PROJECT_CONNECTION_STRING", "")),
			Deployment:      getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", ""),
			APIVersion:      getEnv("AZURE_AGENTS_API_VERSION", "2024-12-01-preview"),
			Timeout:         getEnvAsDuration("AZURE_AGENTS_TIMEOUT", 120*time.Second),
			PollInterval:    getEnvAsDuration("AZURE_AGENTS_POLL_INTERVAL", time.Second),
		},
		Providers: ProvidersConfig{
			AlphaVantage: AlphaVantageConfig{
				APIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
				BaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
				Timeout: getEnvAsDuration("ALPHA_VANTAGE_TIMEOUT", 30*time.Second),
			},
			Serper: SerperConfig{
				APIKey:  getEnv("SERPER_API_KEY", ""),
				BaseURL: getEnv("SERPER_BASE_URL", "https://google.serper.dev"),
				Timeout: getEnvAsDuration("SERPER_TIMEOUT", 30*time.Second),
			},
		},
		Access: AccessConfig{
			RoleFilePath:    getEnv("ROLE_FILE", "user_roles.yaml"),
			UnknownRoleMode: getEnv("ACCESS_UNKNOWN_ROLE_MODE", "ignore"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "console"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (connection string or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set NEON_DB_CONNECTION_STRING or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if err := validate.Struct(&c.Access); err != nil {
		return fmt.Errorf("access configuration invalid: %w", err)
	}

	// Azure validation (required in production; scenario runs without it in
	// development only when the agent calls are mocked out)
	if c.IsProduction() {
		if err := validate.Struct(&c.Azure); err != nil {
			return fmt.Errorf("azure configuration invalid: %w", err)
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from connection string>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from the Neon connection string,
// DATABASE_URL, or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("NEON_DB_CONNECTION_STRING", getEnv("DATABASE_URL", ""))
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", ""),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", ""),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", ""),
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 5),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
