package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat/chattest"
)

func TestMemoryStoreContract(t *testing.T) {
	chattest.RunStoreContract(t, func(*testing.T) chat.Store {
		return chat.NewMemoryStore()
	})
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := chat.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.AppendAndSave(ctx, id, chat.NewMessage(chat.RoleUser, "hi", time.Now())))

	session, err := store.Get(ctx, id)
	require.NoError(t, err)
	session.Messages[0].Content = "mutated"
	session.Messages = append(session.Messages, chat.NewMessage(chat.RoleAssistant, "extra", time.Now()))

	again, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, again.Messages, 1)
	assert.Equal(t, "hi", again.Messages[0].Content)
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := chat.NewStorageError("append", "abc", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, chat.IsStorageError(err))
	assert.Contains(t, err.Error(), "session=abc")
	assert.Nil(t, chat.NewStorageError("append", "abc", nil))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, chat.RoleUser.Valid())
	assert.True(t, chat.RoleAssistant.Valid())
	assert.True(t, chat.RoleSystem.Valid())
	assert.False(t, chat.Role("tool").Valid())
}
