package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATA_DIR", "GEMINI_API_KEY", "GEMNI_API_KEY", "GEMINI_MODEL", "GEMINI_REQUEST_MODEL",
		"STORE_BACKEND", "DATABASE_URL", "DYNAMODB_TABLE", "TRIAGE_RULES",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL", "SLOW_REQUEST_THRESHOLD",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiRequestModel)
	assert.Equal(t, 2*time.Second, cfg.SlowRequestThreshold)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.False(t, cfg.GoogleAuthEnabled())
}

func TestFromEnvLegacyKeyName(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMNI_API_KEY", "legacy")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.GeminiAPIKey)

	t.Setenv("GEMINI_API_KEY", "current")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "current", cfg.GeminiAPIKey)
}

func TestFromEnvPostgresRequiresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/wards")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
}

func TestFromEnvRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "redis")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvRejectsBadThreshold(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLOW_REQUEST_THRESHOLD", "soon")

	_, err := FromEnv()
	assert.Error(t, err)
}
