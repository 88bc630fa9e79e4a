package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LLM_PROVIDER", "mock")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)

	addr, err := cfg.Server.Addr()
	require.NoError(t, err)
	assert.Equal(t, ":5000", addr)

	assert.Equal(t, "gpt-4-turbo", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.95, cfg.LLM.TopP, 1e-6)
	assert.InDelta(t, 0.5, cfg.LLM.FrequencyPenalty, 1e-6)
	assert.InDelta(t, 0.5, cfg.LLM.PresencePenalty, 1e-6)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)

	assert.Equal(t, SessionPolicyReplace, cfg.Session.Policy)
	assert.False(t, cfg.Session.Serialize)
	assert.Equal(t, 10, cfg.Session.HistoryWindow)

	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.RateLimit.Max)
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("SESSION_POLICY", "strict")
	t.Setenv("SESSION_SERIALIZE", "true")
	t.Setenv("HISTORY_WINDOW", "4")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("LLM_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	addr, err := cfg.Server.Addr()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", addr)
	assert.Equal(t, SessionPolicyStrict, cfg.Session.Policy)
	assert.True(t, cfg.Session.Serialize)
	assert.Equal(t, 4, cfg.Session.HistoryWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
}

func TestLoadRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"mongo without uri", map[string]string{"STORE_DRIVER": "mongo", "MONGODB_URI": "", "LLM_PROVIDER": "mock"}},
		{"openai without key", map[string]string{"STORE_DRIVER": "memory", "LLM_PROVIDER": "openai", "OPENAI_API_KEY": ""}},
		{"ark without key", map[string]string{"STORE_DRIVER": "memory", "LLM_PROVIDER": "ark", "ARK_API_KEY": "", "ARK_ACCESS_KEY": ""}},
		{"unknown store", map[string]string{"STORE_DRIVER": "redis", "LLM_PROVIDER": "mock"}},
		{"unknown provider", map[string]string{"STORE_DRIVER": "memory", "LLM_PROVIDER": "llama"}},
		{"unknown policy", map[string]string{"STORE_DRIVER": "memory", "LLM_PROVIDER": "mock", "SESSION_POLICY": "reject"}},
		{"bad env", map[string]string{"STORE_DRIVER": "memory", "LLM_PROVIDER": "mock", "APP_ENV": "staging"}},
		{"bad port", map[string]string{"STORE_DRIVER": "memory", "LLM_PROVIDER": "mock", "PORT": "80 80"}},
		{"zero window", map[string]string{"STORE_DRIVER": "memory", "LLM_PROVIDER": "mock", "HISTORY_WINDOW": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadWithCredentials(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mental_health_chatbot", cfg.Store.MongoDatabase)
	assert.Equal(t, "chatsessions", cfg.Store.MongoCollection)
}

func TestArkEnabled(t *testing.T) {
	assert.False(t, LLMConfig{Model: "m"}.ArkEnabled())
	assert.True(t, LLMConfig{Model: "m", ArkAPIKey: "k"}.ArkEnabled())
	assert.True(t, LLMConfig{Model: "m", ArkAccessKey: "a", ArkSecretKey: "s"}.ArkEnabled())
	assert.False(t, LLMConfig{ArkAPIKey: "k"}.ArkEnabled())
}
