package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// MockCompleter answers locally without any network call.
type MockCompleter struct{}

// NewMockCompleter returns a MockCompleter.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete reflects the latest user turn back.
func (m *MockCompleter) Complete(_ context.Context, p Prompt) (string, error) {
	for i := len(p.History) - 1; i >= 0; i-- {
		if p.History[i].Role == schema.User {
			return fmt.Sprintf("I hear you. You said %q. Tell me a bit more about how that makes you feel.", p.History[i].Content), nil
		}
	}
	return "I'm here to listen. What's on your mind?", nil
}
