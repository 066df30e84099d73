package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the application.
type Config struct {
	DatabaseURL   string
	JWTSecretKey  string
	CronSecret    string
	ServerPort    int
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables.
// A .env file is loaded first if present (local development convenience).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	cronSecret := os.Getenv("CRON_SECRET")
	if cronSecret == "" {
		// Scheduled endpoints must never be open to the world.
		return nil, fmt.Errorf("CRON_SECRET environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:   dbURL,
		JWTSecretKey:  jwtKey,
		CronSecret:    cronSecret,
		ServerPort:    port,
		RedisAddr:     os.Getenv("REDIS_ADDR"), // empty disables the leaderboard cache
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	return cfg, nil
}
