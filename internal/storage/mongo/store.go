// Package mongo persists chat sessions as one MongoDB document per session,
// with the turns embedded in a messages array.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
)

const (
	serverSelectionTimeout = 5 * time.Second
	socketTimeout          = 45 * time.Second
)

// Config selects the deployment, database and collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store implements chat.Store on a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
	now    func() time.Time
}

// Connect dials MongoDB, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetSocketTimeout(socketTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	store := &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: logger.With("component", "mongo_store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	store.logger.Info("mongo connected", "database", cfg.Database, "collection", cfg.Collection)
	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("creating session indexes: %w", err)
	}
	return nil
}

// Create inserts an empty session document.
func (s *Store) Create(ctx context.Context) (string, error) {
	now := s.now()
	doc := chat.Session{
		ID:        chat.NewSessionID(),
		Messages:  []chat.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", chat.NewStorageError("create", doc.ID, err)
	}
	return doc.ID, nil
}

// Get loads a session by id; a missing document yields (nil, nil).
func (s *Store) Get(ctx context.Context, sessionID string) (*chat.Session, error) {
	var doc chat.Session
	err := s.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, chat.NewStorageError("get", sessionID, err)
	}
	if doc.Messages == nil {
		doc.Messages = []chat.Message{}
	}
	return &doc, nil
}

// AppendAndSave pushes messages onto the embedded array in one update, so the
// append is atomic for the document.
func (s *Store) AppendAndSave(ctx context.Context, sessionID string, messages ...chat.Message) error {
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set":  bson.M{"updatedAt": s.now()},
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"sessionId": sessionID}, update)
	if err != nil {
		return chat.NewStorageError("append", sessionID, err)
	}
	if res.MatchedCount == 0 {
		return chat.ErrSessionNotFound
	}
	return nil
}

// Delete removes the session document.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return false, chat.NewStorageError("delete", sessionID, err)
	}
	return res.DeletedCount > 0, nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting mongo: %w", err)
	}
	s.logger.Info("mongo disconnected")
	return nil
}
