package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration values for the application.
// These values are loaded from a .env file at startup.
type Config struct {
	// ServerPort is the port the HTTP server listens on
	ServerPort string

	// DatabasePath is the SQLite database file path
	DatabasePath string

	// JWTSecret signs and verifies access tokens
	JWTSecret string

	// JWTIssuer is the expected token issuer
	JWTIssuer string
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment variables.
// Falls back to sensible defaults if values are not set.
func Load() *Config {
	// Attempt to load .env file - not an error if it doesn't exist
	// as we may be running in production with real environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "talkspace.db"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "talkspace"),
	}

	if config.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; all connections will resolve as anonymous")
	}

	return config
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
