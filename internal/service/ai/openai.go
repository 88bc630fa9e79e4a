package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/mindful-chat/backend/internal/config"
)

// OpenAICompleter calls the chat completions endpoint with fixed decoding settings.
type OpenAICompleter struct {
	client *openai.Client
	cfg    config.LLMConfig
	logger *slog.Logger
}

// NewOpenAICompleter builds a client for cfg.OpenAIBaseURL (or the public API).
func NewOpenAICompleter(cfg config.LLMConfig, logger *slog.Logger) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger.With("component", "openai_completer"),
	}
}

// Complete sends the prompt and returns the first choice's content.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	messages := prompt.Messages()
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: openAIRole(m.Role), Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:            c.cfg.Model,
		Messages:         oaMsgs,
		Temperature:      c.cfg.Temperature,
		MaxTokens:        c.cfg.MaxTokens,
		TopP:             c.cfg.TopP,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
		PresencePenalty:  c.cfg.PresencePenalty,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("completion returned no choices", "model", c.cfg.Model)
		return "", nil
	}

	c.logger.Debug("completion received",
		"model", c.cfg.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}

func openAIRole(role schema.RoleType) string {
	switch role {
	case schema.System:
		return openai.ChatMessageRoleSystem
	case schema.Assistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
