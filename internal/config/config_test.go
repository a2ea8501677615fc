package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/config"
)

func TestLLMConfig_PrimaryConfig_ExplicitPrimary(t *testing.T) {
	cfg := config.LLMConfig{
		Primary: config.LLMProviderConfig{
			Provider:     "openai",
			APIKey:       "sk-primary",
			DefaultModel: "gpt-4o-mini",
		},
	}

	primary := cfg.PrimaryConfig()

	require.NotNil(t, primary)
	assert.Equal(t, "openai", primary.Provider)
	assert.Equal(t, "sk-primary", primary.APIKey)
}

func TestLLMConfig_SecondaryWithoutPrimary(t *testing.T) {
	cfg := config.LLMConfig{
		Secondary: config.LLMProviderConfig{Provider: "gemini"},
	}

	assert.Nil(t, cfg.PrimaryConfig())
	require.NotNil(t, cfg.SecondaryConfig())
}

func TestLoad_FlatLLMKeysIgnored(t *testing.T) {
	t.Setenv("DOCINTAKE_LLM_PROVIDER", "openai")
	t.Setenv("DOCINTAKE_LLM_API_KEY", "sk-flat")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Nil(t, cfg.LLM.PrimaryConfig())
}

func TestLLMConfig_NothingConfigured(t *testing.T) {
	cfg := config.LLMConfig{}

	assert.Nil(t, cfg.PrimaryConfig())
	assert.Nil(t, cfg.SecondaryConfig())
	assert.Nil(t, cfg.TertiaryConfig())
}

func TestLLMConfig_SecondaryAndTertiary(t *testing.T) {
	cfg := config.LLMConfig{
		Primary:   config.LLMProviderConfig{Provider: "claude"},
		Secondary: config.LLMProviderConfig{Provider: "gemini", DefaultModel: "gemini-2.0-flash"},
		Tertiary:  config.LLMProviderConfig{Provider: "openai"},
	}

	require.NotNil(t, cfg.SecondaryConfig())
	assert.Equal(t, "gemini", cfg.SecondaryConfig().Provider)
	require.NotNil(t, cfg.TertiaryConfig())
	assert.Equal(t, "openai", cfg.TertiaryConfig().Provider)
}

func TestUploadConfig_Limits(t *testing.T) {
	u := config.UploadConfig{MaxImageSizeMB: 10, MaxAudioSizeMB: 25}

	assert.Equal(t, int64(10*1024*1024), u.MaxImageBytes())
	assert.Equal(t, int64(25*1024*1024), u.MaxAudioBytes())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "generic", cfg.Analysis.DefaultType)
	assert.Equal(t, int64(10), cfg.Upload.MaxImageSizeMB)
	assert.Equal(t, int64(25), cfg.Upload.MaxAudioSizeMB)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCINTAKE_LLM_PRIMARY_PROVIDER", "openai")
	t.Setenv("DOCINTAKE_LLM_PRIMARY_API_KEY", "sk-env")
	t.Setenv("DOCINTAKE_LLM_PRIMARY_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("DOCINTAKE_CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DOCINTAKE_ANALYSIS_MIN_CONFIDENCE", "0.4")

	cfg, err := config.Load()

	require.NoError(t, err)
	primary := cfg.LLM.PrimaryConfig()
	require.NotNil(t, primary)
	assert.Equal(t, "openai", primary.Provider)
	assert.Equal(t, "http://localhost:11434/v1", primary.BaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.InDelta(t, 0.4, cfg.Analysis.MinConfidence, 1e-9)
	// The OCR backend borrows the OpenAI key.
	assert.Equal(t, "sk-env", cfg.OCR.APIKey)
}

func TestLoad_PortFromPlatform(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Port)
}
