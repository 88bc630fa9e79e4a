package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindful-chat/backend/internal/config"
	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAICompleter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.LLMConfig{
		Model:            "gpt-4-turbo",
		Temperature:      0.7,
		MaxTokens:        1000,
		TopP:             0.95,
		FrequencyPenalty: 0.5,
		PresencePenalty:  0.5,
		Timeout:          5 * time.Second,
		OpenAIAPIKey:     "sk-test",
		OpenAIBaseURL:    srv.URL + "/v1",
	}
	return NewOpenAICompleter(cfg, slog.Default())
}

func TestOpenAICompleterSendsDecodingConfig(t *testing.T) {
	var got openai.ChatCompletionRequest
	completer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "You are not alone."}},
			},
		})
	})

	history := []chat.Message{
		chat.NewMessage(chat.RoleUser, "I feel anxious", time.Now()),
	}
	reply, err := completer.Complete(context.Background(), BuildPrompt("preamble", history, 10))
	require.NoError(t, err)
	assert.Equal(t, "You are not alone.", reply)

	assert.Equal(t, "gpt-4-turbo", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.InDelta(t, 0.95, got.TopP, 1e-6)
	assert.InDelta(t, 0.5, got.FrequencyPenalty, 1e-6)
	assert.InDelta(t, 0.5, got.PresencePenalty, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "preamble", got.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "I feel anxious", got.Messages[1].Content)
}

func TestOpenAICompleterNoChoices(t *testing.T) {
	completer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	reply, err := completer.Complete(context.Background(), BuildPrompt("preamble", nil, 10))
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestOpenAICompleterHTTPError(t *testing.T) {
	completer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := completer.Complete(context.Background(), BuildPrompt("preamble", nil, 10))
	assert.Error(t, err)
}
