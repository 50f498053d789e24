package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultRemoteTimeout bounds one request to the document service
const DefaultRemoteTimeout = 10 * time.Second

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Document database configuration
	DBType               string // mysql, postgres, sqlite, sqlserver
	DBHost               string
	DBPort               string
	DBAppDatabase        string
	DBAppUser            string
	DBAppPassword        string
	DBAppConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Client configuration
	LocalDBPath   string
	RemoteDSN     string // http(s)://host or <dbtype>:<dsn>
	RemoteSession string
	RemoteTimeout time.Duration
	FreeMaxCount  int

	// Logging
	LogLevel  string
	LogFormat string // text, json
	LogFile   string
}

// Load loads the document service configuration from environment variables
func Load() (*Config, error) {
	cfg := fromEnv()

	// Validate required fields
	if cfg.DBAppDatabase == "" {
		return nil, fmt.Errorf("DB_APP_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBAppUser == "" {
		return nil, fmt.Errorf("DB_APP_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}

	return cfg, nil
}

// LoadClient loads the favorites client configuration from environment variables
func LoadClient() (*Config, error) {
	cfg := fromEnv()

	if cfg.LocalDBPath == "" {
		return nil, fmt.Errorf("LOCAL_DB_PATH is required")
	}
	if cfg.FreeMaxCount <= 0 {
		return nil, fmt.Errorf("FREE_MAX_COUNT must be positive, got %d", cfg.FreeMaxCount)
	}
	if cfg.RemoteTimeout <= 0 {
		return nil, fmt.Errorf("REMOTE_TIMEOUT_MS must be positive")
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Port:                 getEnv("PORT", "3000"),
		DBType:               getEnv("DB_TYPE", "mysql"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBAppDatabase:        getEnv("DB_APP_DATABASE", ""),
		DBAppUser:            getEnv("DB_APP_USER", ""),
		DBAppPassword:        getEnv("DB_APP_PASSWORD", ""),
		DBAppConnectionLimit: getEnvAsInt("DB_APP_CONNECTION_LIMIT", 5),
		AuthzURL:             getEnv("AUTHZ_URL", ""),
		AuthzClientID:        getEnv("AUTHZ_CLIENT_ID", ""),
		LocalDBPath:          getEnv("LOCAL_DB_PATH", "proverbs.db"),
		RemoteDSN:            getEnv("REMOTE_DSN", ""),
		RemoteSession:        getEnv("REMOTE_SESSION", ""),
		RemoteTimeout:        time.Duration(getEnvAsInt("REMOTE_TIMEOUT_MS", int(DefaultRemoteTimeout/time.Millisecond))) * time.Millisecond,
		FreeMaxCount:         getEnvAsInt("FREE_MAX_COUNT", 5),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		LogFile:              getEnv("LOG_FILE", ""),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
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
