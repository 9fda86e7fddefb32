package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Usage.MaxFreeUses)
	assert.Equal(t, "recipe_free_uses", cfg.Usage.CounterKey)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.Gemini.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Gemini.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, "rest", cfg.Gemini.Transport)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.False(t, cfg.AIAvailable(), "no API key configured")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key-123456")
	t.Setenv("GEMINI_TIMEOUT", "5s")
	t.Setenv("USAGE_MAX_FREE_USES", "10")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-key-123456", cfg.Gemini.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 10, cfg.Usage.MaxFreeUses)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.AIAvailable())
}

func TestLoadConfig_DisabledGeminiIsNotAvailable(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key-123456")
	t.Setenv("GEMINI_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.AIAvailable())
}

func TestLoadConfig_RequestTimeoutOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REQUEST_TIMEOUT", "45s")
	t.Setenv("GEMINI_TIMEOUT", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
	assert.Greater(t, cfg.Server.RequestTimeout, cfg.Gemini.Timeout)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown storage driver": {"STORAGE_DRIVER": "etcd"},
		"unknown transport":      {"GEMINI_TRANSPORT": "grpc"},
		"negative free uses":     {"USAGE_MAX_FREE_USES": "-1"},
		"zero timeout":           {"GEMINI_TIMEOUT": "0s"},
		"zero rate limit":        {"RATE_LIMIT_REQUESTS": "0"},
		"request timeout too short": {
			"REQUEST_TIMEOUT": "10s",
			"GEMINI_TIMEOUT":  "20s",
		},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
