package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Environments recognised by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Store drivers recognised by STORE_DRIVER.
const (
	StoreMongo  = "mongo"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// LLM providers recognised by LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
	ProviderMock   = "mock"
)

// Session resolution policies recognised by SESSION_POLICY.
const (
	SessionPolicyReplace = "replace"
	SessionPolicyStrict  = "strict"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server    ServerConfig
	Store     StoreConfig
	LLM       LLMConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"5000"`
}

// Addr resolves PORT into a listen address. ":5000" and "127.0.0.1:5000" are
// passed through unchanged.
func (c ServerConfig) Addr() (string, error) {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "5000"
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	Driver          string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI        string `env:"MONGODB_URI"`
	MongoDatabase   string `env:"MONGODB_DATABASE" envDefault:"mental_health_chatbot"`
	MongoCollection string `env:"MONGODB_COLLECTION" envDefault:"chatsessions"`
	BadgerPath      string `env:"BADGER_PATH" envDefault:"data/sessions"`
}

// LLMConfig 描述大模型相关配置。
type LLMConfig struct {
	Provider         string        `env:"LLM_PROVIDER" envDefault:"openai"`
	Model            string        `env:"LLM_MODEL" envDefault:"gpt-4-turbo"`
	Temperature      float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	MaxTokens        int           `env:"LLM_MAX_TOKENS" envDefault:"1000"`
	TopP             float32       `env:"LLM_TOP_P" envDefault:"0.95"`
	FrequencyPenalty float32       `env:"LLM_FREQUENCY_PENALTY" envDefault:"0.5"`
	PresencePenalty  float32       `env:"LLM_PRESENCE_PENALTY" envDefault:"0.5"`
	Timeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	SystemPromptPath string        `env:"SYSTEM_PROMPT_PATH"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	ArkAPIKey    string `env:"ARK_API_KEY"`
	ArkAccessKey string `env:"ARK_ACCESS_KEY"`
	ArkSecretKey string `env:"ARK_SECRET_KEY"`
	ArkBaseURL   string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	ArkRegion    string `env:"ARK_REGION" envDefault:"cn-beijing"`
}

// ArkEnabled 表示是否提供了 Ark 必需的密钥。
func (c LLMConfig) ArkEnabled() bool {
	return c.Model != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c LLMConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + LLM_MODEL 或 AK/SK 组合")
	}

	temperature := c.Temperature
	topP := c.TopP
	maxTokens := c.MaxTokens
	frequencyPenalty := c.FrequencyPenalty
	presencePenalty := c.PresencePenalty

	cfg := &ark.ChatModelConfig{
		BaseURL:          c.ArkBaseURL,
		Region:           c.ArkRegion,
		APIKey:           c.ArkAPIKey,
		AccessKey:        c.ArkAccessKey,
		SecretKey:        c.ArkSecretKey,
		Model:            c.Model,
		MaxTokens:        &maxTokens,
		Temperature:      &temperature,
		TopP:             &topP,
		FrequencyPenalty: &frequencyPenalty,
		PresencePenalty:  &presencePenalty,
	}

	return ark.NewChatModel(ctx, cfg)
}

// SessionConfig controls how the orchestrator resolves and bounds sessions.
type SessionConfig struct {
	Policy        string `env:"SESSION_POLICY" envDefault:"replace"`
	Serialize     bool   `env:"SESSION_SERIALIZE" envDefault:"false"`
	HistoryWindow int    `env:"HISTORY_WINDOW" envDefault:"10"`
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	Max    int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.Session.Policy = strings.ToLower(strings.TrimSpace(c.Session.Policy))
}

// Validate rejects unknown enum values and missing credentials.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("invalid APP_ENV value: %q", c.Env)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL value: %q", c.LogLevel)
	}

	if _, err := c.Server.Addr(); err != nil {
		return err
	}

	switch c.Store.Driver {
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER=%s", StoreMongo)
		}
	case StoreBadger, StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER value: %q", c.Store.Driver)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=%s", ProviderOpenAI)
		}
	case ProviderArk:
		if !c.LLM.ArkEnabled() {
			return fmt.Errorf("ARK_API_KEY (or ARK_ACCESS_KEY and ARK_SECRET_KEY) and LLM_MODEL are required when LLM_PROVIDER=%s", ProviderArk)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER value: %q", c.LLM.Provider)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL must not be empty")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("invalid LLM_MAX_TOKENS value: %d", c.LLM.MaxTokens)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("invalid LLM_TIMEOUT value: %s", c.LLM.Timeout)
	}

	switch c.Session.Policy {
	case SessionPolicyReplace, SessionPolicyStrict:
	default:
		return fmt.Errorf("invalid SESSION_POLICY value: %q", c.Session.Policy)
	}
	if c.Session.HistoryWindow < 1 {
		return fmt.Errorf("invalid HISTORY_WINDOW value: %d", c.Session.HistoryWindow)
	}

	if c.RateLimit.Max < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate limit: %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	}

	return nil
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}
