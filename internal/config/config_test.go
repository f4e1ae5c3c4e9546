package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("RENDER_ENGINE", "CHROMIUM")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("AI_RATE_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, EngineChromium, cfg.Render.Engine)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.AllowedOrigins)
	assert.Equal(t, 5, cfg.AI.RateLimit)
	assert.Equal(t, "cv_session", cfg.Session.CookieName)
	assert.Equal(t, 15*time.Minute, cfg.Render.PresignedTTL)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	_, err := Load()
	assert.ErrorContains(t, err, "session secret is required")

	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("STORE_BACKEND", "disk")
	_, err = Load()
	assert.ErrorContains(t, err, "unsupported store backend")

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load()
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Format: "json"}.NewLogger(&buf).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	LogConfig{Format: "text"}.NewLogger(&buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
