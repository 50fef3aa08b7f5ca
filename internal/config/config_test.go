package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("BACKEND_ORIGIN", "")
	t.Setenv("SESSION_ID", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "http://localhost:8080", cfg.BackendOrigin)
	assert.Empty(t, cfg.SessionID)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("BACKEND_ORIGIN", "https://score.example.com/")
	t.Setenv("SESSION_ID", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "https://score.example.com", cfg.BackendOrigin)
	assert.Equal(t, "abc123", cfg.SessionID)
}

func TestLoadRejectsNonHTTPOrigin(t *testing.T) {
	t.Setenv("BACKEND_ORIGIN", "ftp://score.example.com")

	_, err := Load()
	assert.Error(t, err)
}
