// Package ai talks to the completion API: it assembles bounded prompts and
// hides the provider behind Completer.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zhouzirui/mindful-chat/backend/internal/config"
)

// Completer returns the best completion text for a prompt. An empty string
// with a nil error means the provider produced nothing usable.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// NewCompleter builds the Completer for the configured provider.
func NewCompleter(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAICompleter(cfg, logger), nil
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewArkCompleter(ctx, chatModel, logger)
	case config.ProviderMock:
		return NewMockCompleter(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
