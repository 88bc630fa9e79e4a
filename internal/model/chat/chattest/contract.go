// Package chattest holds the behavioural suite every chat.Store backend must pass.
package chattest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
)

// RunStoreContract exercises a Store built by newStore. Each subtest gets a
// fresh store.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) chat.Store) {
	t.Helper()

	t.Run("CreateThenGetIsEmpty", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Create(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		session, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, id, session.ID)
		assert.Empty(t, session.Messages)
		assert.False(t, session.CreatedAt.IsZero())
		assert.False(t, session.UpdatedAt.IsZero())
	})

	t.Run("CreateReturnsDistinctIDs", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		seen := make(map[string]struct{})
		for i := 0; i < 20; i++ {
			id, err := store.Create(ctx)
			require.NoError(t, err)
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %s", id)
			seen[id] = struct{}{}
		}
	})

	t.Run("GetMissingIsAbsent", func(t *testing.T) {
		store := newStore(t)

		session, err := store.Get(context.Background(), chat.NewSessionID())
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("AppendPreservesOrder", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Create(ctx)
		require.NoError(t, err)

		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		first := []chat.Message{
			chat.NewMessage(chat.RoleUser, "one", base),
			chat.NewMessage(chat.RoleAssistant, "two", base.Add(time.Second)),
		}
		second := []chat.Message{
			chat.NewMessage(chat.RoleUser, "three", base.Add(2*time.Second)),
			chat.NewMessage(chat.RoleAssistant, "four", base.Add(3*time.Second)),
		}
		require.NoError(t, store.AppendAndSave(ctx, id, first...))
		require.NoError(t, store.AppendAndSave(ctx, id, second...))

		session, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Len(t, session.Messages, 4)

		want := append(append([]chat.Message{}, first...), second...)
		for i, msg := range session.Messages {
			assert.Equal(t, want[i].Role, msg.Role, "role at %d", i)
			assert.Equal(t, want[i].Content, msg.Content, "content at %d", i)
			assert.True(t, want[i].Timestamp.Equal(msg.Timestamp), "timestamp at %d", i)
		}
		assert.False(t, session.UpdatedAt.Before(session.CreatedAt))
	})

	t.Run("AppendToMissingIsNotFound", func(t *testing.T) {
		store := newStore(t)

		err := store.AppendAndSave(context.Background(), chat.NewSessionID(),
			chat.NewMessage(chat.RoleUser, "hello", time.Now()))
		require.Error(t, err)
		assert.True(t, errors.Is(err, chat.ErrSessionNotFound), "got %v", err)
	})

	t.Run("DeleteReportsExistence", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Create(ctx)
		require.NoError(t, err)

		deleted, err := store.Delete(ctx, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		session, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, session)

		deleted, err = store.Delete(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("AppendAfterDeleteIsNotFound", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Create(ctx)
		require.NoError(t, err)
		_, err = store.Delete(ctx, id)
		require.NoError(t, err)

		err = store.AppendAndSave(ctx, id, chat.NewMessage(chat.RoleUser, "late", time.Now()))
		assert.ErrorIs(t, err, chat.ErrSessionNotFound)
	})
}
