package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindful-chat/backend/internal/config"
	"github.com/zhouzirui/mindful-chat/backend/internal/logging"
	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
)

func TestOpenStoreMemory(t *testing.T) {
	store, err := openStore(context.Background(), config.StoreConfig{Driver: config.StoreMemory}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &chat.MemoryStore{}, store)
}

func TestOpenStoreBadgerInMemory(t *testing.T) {
	store, err := openStore(context.Background(), config.StoreConfig{Driver: config.StoreBadger}, logging.Discard())
	require.NoError(t, err)

	closer, ok := store.(chat.Closer)
	require.True(t, ok)
	assert.NoError(t, closer.Close(context.Background()))
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
