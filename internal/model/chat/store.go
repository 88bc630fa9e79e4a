package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the durable session contract used by the orchestrator.
//
// Get returns (nil, nil) when no session matches; absence is not an error.
// AppendAndSave returns ErrSessionNotFound when the session disappeared before
// the write. Delete never fails for a missing session.
type Store interface {
	Create(ctx context.Context) (string, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	AppendAndSave(ctx context.Context, sessionID string, messages ...Message) error
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by stores holding process-wide connections.
type Closer interface {
	Close(ctx context.Context) error
}

// NewSessionID returns a fresh random identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// MemoryStore implements Store with in-process maps, suitable for tests and
// single-instance development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create provisions an empty session.
func (s *MemoryStore) Create(_ context.Context) (string, error) {
	now := s.now()
	session := &Session{
		ID:        NewSessionID(),
		Messages:  make([]Message, 0, 16),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session.ID, nil
}

// Get returns a copy of the session, or nil when absent.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := session.Clone()
	return &copied, nil
}

// AppendAndSave appends messages in order and bumps UpdatedAt.
func (s *MemoryStore) AppendAndSave(_ context.Context, sessionID string, messages ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.Messages = append(session.Messages, messages...)
	session.UpdatedAt = s.now()
	return nil
}

// Delete removes the session and reports whether it existed.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(s.sessions, sessionID)
	return true, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }
