package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
)

type fakeChatModel struct {
	got   []*schema.Message
	reply *schema.Message
	err   error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{f.reply}), nil
}

func TestArkCompleterRunsChain(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("Breathe slowly with me.", nil)}
	completer, err := NewArkCompleter(context.Background(), fake, nil)
	require.NoError(t, err)

	history := []chat.Message{
		chat.NewMessage(chat.RoleUser, "hi", time.Now()),
		chat.NewMessage(chat.RoleAssistant, "hello", time.Now()),
		chat.NewMessage(chat.RoleUser, "I can't sleep {at all}", time.Now()),
	}
	reply, err := completer.Complete(context.Background(), BuildPrompt("preamble", history, 10))
	require.NoError(t, err)
	assert.Equal(t, "Breathe slowly with me.", reply)

	require.Len(t, fake.got, 4)
	assert.Equal(t, schema.System, fake.got[0].Role)
	assert.Equal(t, "preamble", fake.got[0].Content)
	assert.Equal(t, "hi", fake.got[1].Content)
	assert.Equal(t, schema.Assistant, fake.got[2].Role)
	assert.Equal(t, "I can't sleep {at all}", fake.got[3].Content)
}

func TestArkCompleterPropagatesError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("upstream down")}
	completer, err := NewArkCompleter(context.Background(), fake, nil)
	require.NoError(t, err)

	_, err = completer.Complete(context.Background(), BuildPrompt("preamble", nil, 10))
	assert.Error(t, err)
}
