package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/mindful-chat/backend/internal/config"
	"github.com/zhouzirui/mindful-chat/backend/internal/handler"
	"github.com/zhouzirui/mindful-chat/backend/internal/logging"
	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-chat/backend/internal/service/ai"
	chatService "github.com/zhouzirui/mindful-chat/backend/internal/service/chat"
	badgerstore "github.com/zhouzirui/mindful-chat/backend/internal/storage/badger"
	mongostore "github.com/zhouzirui/mindful-chat/backend/internal/storage/mongo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Warn("no .env file loaded, using process environment only", "error", envErr)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	if closer, ok := store.(chat.Closer); ok {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := closer.Close(closeCtx); err != nil {
				logger.Error("failed to close session store", "error", err)
			}
		}()
	}

	profile, err := ai.LoadPromptProfile(cfg.LLM.SystemPromptPath)
	if err != nil {
		return err
	}

	completer, err := ai.NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	logger.Info("completion provider initialized", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	opts := []chatService.Option{
		chatService.WithHistoryWindow(cfg.Session.HistoryWindow),
		chatService.WithCompletionTimeout(cfg.LLM.Timeout),
		chatService.WithPromptProfile(profile),
		chatService.WithLogger(logger),
	}
	if cfg.Session.Policy == config.SessionPolicyStrict {
		opts = append(opts, chatService.WithPolicy(chatService.RejectUnknown))
	}
	if cfg.Session.Serialize {
		opts = append(opts, chatService.WithSessionLocking())
	}
	chatSvc := chatService.NewService(store, completer, opts...)

	router := handler.NewRouter(chatSvc, handler.Options{
		Env:             cfg.Env,
		StoreDriver:     cfg.Store.Driver,
		Development:     cfg.IsDevelopment(),
		RateLimitMax:    cfg.RateLimit.Max,
		RateLimitWindow: cfg.RateLimit.Window,
		Logger:          logger,
	})

	addr, err := cfg.Server.Addr()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("mental health chatbot backend listening", "addr", addr, "environment", cfg.Env, "store", cfg.Store.Driver)
	return runServer(ctx, srv)
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (chat.Store, error) {
	switch cfg.Driver {
	case config.StoreMongo:
		return mongostore.Connect(ctx, mongostore.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		}, logger)
	case config.StoreBadger:
		return badgerstore.Open(cfg.BadgerPath, logger)
	default:
		logger.Warn("using in-memory session store, sessions are lost on restart")
		return chat.NewMemoryStore(), nil
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
