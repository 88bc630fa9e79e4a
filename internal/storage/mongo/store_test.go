package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat/chattest"
	"github.com/zhouzirui/mindful-chat/backend/internal/storage/mongo"
)

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	chattest.RunStoreContract(t, func(t *testing.T) chat.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := mongo.Connect(ctx, mongo.Config{
			URI:        uri,
			Database:   fmt.Sprintf("chat_test_%d", time.Now().UnixNano()),
			Collection: "chatsessions",
		}, nil)
		require.NoError(t, err)

		t.Cleanup(func() {
			_ = store.Close(context.Background())
		})
		return store
	})
}

func TestConnectRequiresURI(t *testing.T) {
	_, err := mongo.Connect(context.Background(), mongo.Config{}, nil)
	require.Error(t, err)
}
