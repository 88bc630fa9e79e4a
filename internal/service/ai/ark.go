package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ArkCompleter runs the prompt through an eino chain: chat template, then model.
type ArkCompleter struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	logger *slog.Logger
}

// NewArkCompleter compiles the chain around chatModel.
func NewArkCompleter(ctx context.Context, chatModel model.BaseChatModel, logger *slog.Logger) (*ArkCompleter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkCompleter{
		chain:  runnable,
		logger: logger.With("component", "ark_completer"),
	}, nil
}

// Complete invokes the chain once.
func (c *ArkCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	input := map[string]any{
		"system":  p.System,
		"history": p.History,
	}

	response, err := c.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", nil
	}

	c.logger.Debug("generated response", "length", len(response.Content))
	return response.Content, nil
}
