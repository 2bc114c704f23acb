package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the daemon's full environment-derived configuration.
type Config struct {
	// Backend selects the shared store: "postgres" or "none". With "none"
	// the daemon runs detached and every session action reports the
	// backend as unavailable.
	Backend string

	// Hub selects the push channel: "pg", "nats" or "mem".
	Hub     string
	NATSURL string

	// ProfilePath is the local SQLite file holding the durable identity.
	ProfilePath string

	// ShareBaseURL is the public origin baked into room share links.
	ShareBaseURL string

	Port         string
	PollInterval time.Duration

	Database DatabaseConfig
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN renders the config as a postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func loadConfig() Config {
	return Config{
		Backend:      getEnv("POKERD_BACKEND", "postgres"),
		Hub:          getEnv("POKERD_HUB", "pg"),
		NATSURL:      getEnv("POKERD_NATS_URL", "nats://localhost:4222"),
		ProfilePath:  getEnv("POKERD_PROFILE", defaultProfilePath()),
		ShareBaseURL: getEnv("POKERD_SHARE_URL", "http://localhost:"+getEnv("PORT", "8080")),
		Port:         getEnv("PORT", "8080"),
		PollInterval: getEnvAsDuration("POKERD_POLL_INTERVAL", 4*time.Second),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "pokerd"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
}

func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pokerd-profile.db"
	}
	return dir + "/pokerd/profile.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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
