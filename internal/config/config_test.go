package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tripguide")
	t.Setenv("MEMORY_STORE", "")
	t.Setenv("MAX_IMAGE_BYTES", "")
	t.Setenv("MAX_IMAGE_PIXELS", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "")
	t.Setenv("MEDIA_BASE_URL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/tripguide", cfg.DatabaseURL)
	assert.Equal(t, int64(10<<20), cfg.MaxImageBytes)
	assert.Equal(t, int64(50_000_000), cfg.MaxImagePixels)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, "/uploads", cfg.MediaBaseURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MEMORY_STORE", "false")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMemoryStoreSkipsDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MEMORY_STORE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MemoryStore)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("MAX_IMAGE_BYTES", "2048")
	t.Setenv("MAX_IMAGE_PIXELS", "1000000")
	t.Setenv("SESSION_IDLE_TIMEOUT", "45m")
	t.Setenv("CORS_ORIGINS", "https://admin.example.com, https://example.com")
	t.Setenv("MEDIA_BASE_URL", "https://cdn.example.com/media/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(2048), cfg.MaxImageBytes)
	assert.Equal(t, int64(1000000), cfg.MaxImagePixels)
	assert.Equal(t, 45*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, []string{"https://admin.example.com", "https://example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "https://cdn.example.com/media", cfg.MediaBaseURL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("SESSION_IDLE_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositivePixelCeiling(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("MAX_IMAGE_PIXELS", "0")

	_, err := Load()
	assert.Error(t, err)
}
