package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mood-story/backend/internal/model/story"
	"github.com/zhouzirui/mood-story/backend/internal/service/history"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("a generation is already running for this session")
)

// Session holds the history and prompt buffer of one visitor.
type Session struct {
	id        string
	createdAt time.Time
	history   *history.History

	mu     sync.RWMutex
	prompt string

	busy atomic.Bool
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// History returns the session's record log.
func (s *Session) History() *history.History {
	return s.history
}

// Prompt returns the current prompt buffer.
func (s *Session) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt
}

// SetPrompt replaces the prompt buffer.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

// Append stores a finished record.
func (s *Session) Append(record story.Record) {
	s.history.Append(record)
}

// TryAcquire marks the session busy. It returns false when another
// generation already holds it.
func (s *Session) TryAcquire() bool {
	return s.busy.CompareAndSwap(false, true)
}

// Release clears the busy mark.
func (s *Session) Release() {
	s.busy.Store(false)
}

// Busy reports whether a generation is running.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Summary returns the public view of the session.
func (s *Session) Summary() story.SessionSummary {
	return story.SessionSummary{
		ID:            s.id,
		CreatedAt:     s.createdAt,
		CurrentPrompt: s.Prompt(),
		HistoryLength: s.history.Len(),
	}
}

// Service keeps every live session in memory.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService bootstraps the in-memory session registry.
func NewService() *Service {
	return &Service{sessions: make(map[string]*Session)}
}

// CreateSession provisions an empty session.
func (s *Service) CreateSession(_ context.Context) (*Session, error) {
	sess := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		history:   history.New(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return sess, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// DeleteSession ends a session and discards its history.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Reset clears the history and prompt buffer. It is refused while a
// generation is running so the in-flight record cannot land after it.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.TryAcquire() {
		return ErrSessionBusy
	}
	defer sess.Release()

	sess.history.Clear()
	sess.SetPrompt("")
	return nil
}

// SetPrompt updates the prompt buffer of a session.
func (s *Service) SetPrompt(ctx context.Context, sessionID, prompt string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.SetPrompt(prompt)
	return nil
}

// Acquire looks up a session and marks it busy. Callers must Release it.
func (s *Service) Acquire(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.TryAcquire() {
		return nil, ErrSessionBusy
	}
	return sess, nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
