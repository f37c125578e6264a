package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouterBaseURL)
	assert.Equal(t, 2000, cfg.PromptMaxChars)
	assert.Equal(t, 2*time.Second, cfg.RateLimitCooldown)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 6, cfg.MinTasks)
	assert.Equal(t, 8, cfg.MaxTasks)

	require.Len(t, cfg.FreeModels, 4)
	// Order is policy: the flaky model closes the roster.
	assert.Equal(t, "google/gemini-2.0-flash-exp:free", cfg.FreeModels[3])

	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9999")
	t.Setenv("FREE_MODELS", "a:free,b:free")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://one.test,https://two.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, []string{"a:free", "b:free"}, cfg.FreeModels)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, "https://one.test,https://two.test", cfg.CORSAllowOrigins)
	assert.True(t, cfg.IsProd())
}

func TestLoadBadValue(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
}
