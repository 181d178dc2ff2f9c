package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "omnisight.db", cfg.DBPath)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.NotEmpty(t, cfg.Model)
	assert.NotEmpty(t, cfg.SystemPrompt)
}

func TestLoadFailsFastWithoutAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestPortFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}
