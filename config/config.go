package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"eventgate/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort string
	SchemaFile string
	// DatabaseURL overrides the database_url of the schema document when set,
	// so deployments can keep credentials out of the schema file.
	DatabaseURL string
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		SchemaFile:  getEnv("SCHEMA_FILE", "./schema.conf.yaml"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, Schema: %s", cfg.ServerPort, cfg.SchemaFile)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
