package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emalabs/mini-ema/internal/model/chat"
)

var (
	ErrBotRequired     = errors.New("bot name is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrTurnInProgress  = errors.New("a bot invocation is already running for this session")
)

// Service encapsulates conversation state management: session registry,
// per-session transcript, and the idle/awaiting-response turn gate that
// serializes one in-flight bot invocation per session.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	busy     map[string]bool
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		busy:     make(map[string]bool),
	}
}

// CreateSession provisions an anonymous session bound to a bot and username.
func (s *Service) CreateSession(_ context.Context, botName, username string) (chat.Session, error) {
	if botName == "" {
		return chat.Session{}, ErrBotRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		BotName:   botName,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to the session transcript. Content and
// metadata are stored exactly as passed.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// ClearTranscript drops all messages for the session, keeping it alive.
func (s *Service) ClearTranscript(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	s.messages[sessionID] = s.messages[sessionID][:0]
	return nil
}

// BeginTurn transitions the session to awaiting-response. It fails with
// ErrTurnInProgress while another invocation is running.
func (s *Service) BeginTurn(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	if s.busy[sessionID] {
		return ErrTurnInProgress
	}
	s.busy[sessionID] = true
	return nil
}

// EndTurn restores the session to idle. Always called, including after
// error fragments.
func (s *Service) EndTurn(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, sessionID)
}
