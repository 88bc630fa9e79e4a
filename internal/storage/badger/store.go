// Package badger keeps chat sessions in an embedded Badger database, one JSON
// document per session.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
)

const keyPrefix = "session:"

// Store implements chat.Store on Badger.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (or creates) the database under dir. An empty dir opens an
// in-memory database.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger.With("component", "badger_store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	store.logger.Info("badger opened", "dir", dir, "in_memory", dir == "")
	return store, nil
}

func sessionKey(id string) []byte {
	return []byte(keyPrefix + id)
}

func readSession(txn *badger.Txn, id string) (*chat.Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session chat.Session
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	})
	if err != nil {
		return nil, err
	}
	if session.Messages == nil {
		session.Messages = []chat.Message{}
	}
	return &session, nil
}

func writeSession(txn *badger.Txn, session *chat.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return txn.Set(sessionKey(session.ID), data)
}

// Create writes an empty session document.
func (s *Store) Create(_ context.Context) (string, error) {
	now := s.now()
	session := &chat.Session{
		ID:        chat.NewSessionID(),
		Messages:  []chat.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return writeSession(txn, session)
	})
	if err != nil {
		return "", chat.NewStorageError("create", session.ID, err)
	}
	return session.ID, nil
}

// Get loads a session; absence yields (nil, nil).
func (s *Store) Get(_ context.Context, sessionID string) (*chat.Session, error) {
	var session *chat.Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = readSession(txn, sessionID)
		return err
	})
	if err != nil {
		return nil, chat.NewStorageError("get", sessionID, err)
	}
	return session, nil
}

// AppendAndSave does the read-modify-write inside one transaction. A concurrent
// writer on the same key makes the commit fail with badger.ErrConflict, which is
// reported as a StorageError rather than retried.
func (s *Store) AppendAndSave(_ context.Context, sessionID string, messages ...chat.Message) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		session, err := readSession(txn, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return chat.ErrSessionNotFound
		}
		session.Messages = append(session.Messages, messages...)
		session.UpdatedAt = s.now()
		return writeSession(txn, session)
	})
	if errors.Is(err, chat.ErrSessionNotFound) {
		return err
	}
	return chat.NewStorageError("append", sessionID, err)
}

// Delete removes the session key and reports whether it existed.
func (s *Store) Delete(_ context.Context, sessionID string) (bool, error) {
	deleted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(sessionKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		deleted = true
		return txn.Delete(sessionKey(sessionID))
	})
	if err != nil {
		return false, chat.NewStorageError("delete", sessionID, err)
	}
	return deleted, nil
}

// Ping reports whether the database is still open.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close(context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}
