package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zhouzirui/mindful-chat/backend/internal/logging"
	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-chat/backend/internal/service/ai"
)

// ResolutionPolicy decides what happens to a supplied session id that does
// not exist.
type ResolutionPolicy int

const (
	// ReplaceUnknown silently starts a new session.
	ReplaceUnknown ResolutionPolicy = iota
	// RejectUnknown fails the exchange with chat.ErrSessionNotFound.
	RejectUnknown
)

// Reply is the outcome of one persisted exchange.
type Reply struct {
	SessionID  string
	Message    string
	Response   string
	Timestamp  time.Time
	NewSession bool
}

// Option customises a Service.
type Option func(*Service)

// WithHistoryWindow bounds how many stored turns accompany the preamble.
func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithPolicy sets the unknown-session policy.
func WithPolicy(p ResolutionPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithSessionLocking serialises exchanges that target the same session id.
func WithSessionLocking() Option {
	return func(s *Service) { s.locks = newSessionLocks() }
}

// WithCompletionTimeout caps each completion call. Zero disables the cap.
func WithCompletionTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithPromptProfile replaces the system preamble and fallback reply.
func WithPromptProfile(p ai.PromptProfile) Option {
	return func(s *Service) {
		if p.SystemPrompt != "" {
			s.profile.SystemPrompt = p.SystemPrompt
		}
		if p.FallbackReply != "" {
			s.profile.FallbackReply = p.FallbackReply
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service orchestrates a conversation: it resolves the session, builds the
// bounded prompt, calls the completer and persists both turns.
type Service struct {
	store     chat.Store
	completer ai.Completer
	profile   ai.PromptProfile
	window    int
	policy    ResolutionPolicy
	timeout   time.Duration
	locks     *sessionLocks
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the orchestrator to its store and completer.
func NewService(store chat.Store, completer ai.Completer, opts ...Option) *Service {
	s := &Service{
		store:     store,
		completer: completer,
		profile:   ai.DefaultPromptProfile(),
		window:    ai.DefaultHistoryWindow,
		policy:    ReplaceUnknown,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessMessage runs one exchange. Either both turns are persisted and the
// reply returned, or a *ProcessingError is returned and nothing is reported.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	logger := logging.FromContext(ctx, s.logger)

	if s.locks != nil && sessionID != "" {
		unlock := s.locks.lock(sessionID)
		defer unlock()
	}

	callTime := s.now()
	session, created, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, &ProcessingError{Op: "resolve session", SessionID: sessionID, Err: err}
	}
	if created && sessionID != "" {
		logger.Info("unknown session replaced", "requested_session_id", sessionID, "session_id", session.ID)
	}

	userTurn := chat.NewMessage(chat.RoleUser, text, callTime)
	history := make([]chat.Message, 0, len(session.Messages)+1)
	history = append(append(history, session.Messages...), userTurn)
	prompt := ai.BuildPrompt(s.profile.SystemPrompt, history, s.window)

	response, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, &ProcessingError{Op: "complete", SessionID: session.ID, Err: err}
	}
	if strings.TrimSpace(response) == "" {
		logger.Warn("empty completion, using fallback reply", "session_id", session.ID)
		response = s.profile.FallbackReply
	}

	assistantTurn := chat.NewMessage(chat.RoleAssistant, response, s.now())
	if err := s.store.AppendAndSave(ctx, session.ID, userTurn, assistantTurn); err != nil {
		return nil, &ProcessingError{Op: "persist exchange", SessionID: session.ID, Err: err}
	}

	logger.Info("message processed",
		"session_id", session.ID,
		"new_session", created,
		"prompt_turns", len(prompt.History),
		"response_length", len(response))

	return &Reply{
		SessionID:  session.ID,
		Message:    text,
		Response:   response,
		Timestamp:  assistantTurn.Timestamp,
		NewSession: created,
	}, nil
}

// resolveSession returns the session to extend and whether it was created.
func (s *Service) resolveSession(ctx context.Context, sessionID string) (*chat.Session, bool, error) {
	if sessionID != "" {
		session, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return nil, false, err
		}
		if session != nil {
			return session, false, nil
		}
		if s.policy == RejectUnknown {
			return nil, false, chat.ErrSessionNotFound
		}
	}

	id, err := s.store.Create(ctx)
	if err != nil {
		return nil, false, err
	}
	return &chat.Session{ID: id, Messages: []chat.Message{}}, true, nil
}

func (s *Service) complete(ctx context.Context, prompt ai.Prompt) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("completion aborted: %w", ctx.Err())
		}
		return "", err
	}
	return response, nil
}

// CreateSession provisions an empty session.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	return s.store.Create(ctx)
}

// History returns the stored turns; ok is false when the session is absent.
func (s *Service) History(ctx context.Context, sessionID string) ([]chat.Message, bool, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return nil, false, nil
	}
	if session.Messages == nil {
		return []chat.Message{}, true, nil
	}
	return session.Messages, true, nil
}

// DeleteSession removes a session and reports whether one existed.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	return s.store.Delete(ctx, sessionID)
}

// Ping checks the store when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(chat.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
