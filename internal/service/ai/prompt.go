package ai

import (
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
)

// DefaultHistoryWindow is how many trailing turns accompany the preamble.
const DefaultHistoryWindow = 10

// Prompt is the bounded input for one completion call.
type Prompt struct {
	System  string
	History []*schema.Message
}

// Messages flattens the prompt into the order the completion API expects.
func (p Prompt) Messages() []*schema.Message {
	out := make([]*schema.Message, 0, len(p.History)+1)
	out = append(out, schema.SystemMessage(p.System))
	return append(out, p.History...)
}

// BuildPrompt pairs the preamble with the last window turns of history, in
// their original order. It only reads history.
func BuildPrompt(system string, history []chat.Message, window int) Prompt {
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	startIdx := 0
	if len(history) > window {
		startIdx = len(history) - window
	}

	turns := make([]*schema.Message, 0, len(history)-startIdx)
	for _, msg := range history[startIdx:] {
		turns = append(turns, toSchemaMessage(msg))
	}

	return Prompt{System: system, History: turns}
}

func toSchemaMessage(msg chat.Message) *schema.Message {
	switch msg.Role {
	case chat.RoleAssistant:
		return schema.AssistantMessage(msg.Content, nil)
	case chat.RoleSystem:
		return schema.SystemMessage(msg.Content)
	default:
		return schema.UserMessage(msg.Content)
	}
}
