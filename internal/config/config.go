package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config carries everything the companion needs to reach a room server.
type Config struct {
	Env           string
	BackendOrigin string
	SessionID     string
	LogLevel      string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:           getEnv("ENV", "development"),
		BackendOrigin: getEnv("BACKEND_ORIGIN", "http://localhost:8080"),
		SessionID:     os.Getenv("SESSION_ID"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	origin, err := url.Parse(cfg.BackendOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_ORIGIN %q: %w", cfg.BackendOrigin, err)
	}
	if origin.Scheme != "http" && origin.Scheme != "https" {
		return nil, fmt.Errorf("BACKEND_ORIGIN must be http or https, got %q", cfg.BackendOrigin)
	}
	cfg.BackendOrigin = strings.TrimRight(origin.String(), "/")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
