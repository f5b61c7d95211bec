// Package chat orchestrates a conversation turn: persist the user
// message, assemble the prompt context, call the inference backend, and
// persist the linked reply.
package chat

import (
	"context"
	"fmt"
	"sync"

	"lochat/internal/ollama"
	"lochat/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxContext bounds the history window included in each prompt.
const DefaultMaxContext = 50

// Backend produces a reply for an ordered message list. *ollama.Client
// satisfies it; tests substitute a fake.
type Backend interface {
	Chat(ctx context.Context, messages []ollama.ChatMessage) (string, error)
	Model() string
}

// Service wires the store and the inference backend together.
type Service struct {
	store         *store.Store
	backend       Backend
	log           *zap.Logger
	maxContext    int
	defaultSystem string

	mu       sync.Mutex
	sessions map[int64]*sessionLock
}

// sessionLock serializes turns for one session. refs counts holders and
// waiters so the entry can be evicted once the session goes quiet,
// keeping the map bounded over a long-lived process.
type sessionLock struct {
	sync.Mutex
	refs int
}

// NewService returns an orchestrator over the given store and backend.
// A nil logger disables logging; maxContext <= 0 uses DefaultMaxContext.
func NewService(st *store.Store, backend Backend, log *zap.Logger, maxContext int) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if maxContext <= 0 {
		maxContext = DefaultMaxContext
	}
	return &Service{
		store:      st,
		backend:    backend,
		log:        log,
		maxContext: maxContext,
		sessions:   make(map[int64]*sessionLock),
	}
}

// SetDefaultSystemPrompt sets the prompt used when a turn has no
// explicit override and the session has no stored system prompt.
func (s *Service) SetDefaultSystemPrompt(prompt string) {
	s.defaultSystem = prompt
}

// lockSession acquires the per-session turn lock, creating it on first
// use. Turn-index computation reads max(turn_index) fresh on each
// append, so two in-flight turns on the same session could otherwise
// race to the same index. Turns on different sessions proceed
// concurrently.
func (s *Service) lockSession(sessionID int64) *sessionLock {
	s.mu.Lock()
	m, ok := s.sessions[sessionID]
	if !ok {
		m = &sessionLock{}
		s.sessions[sessionID] = m
	}
	m.refs++
	s.mu.Unlock()

	m.Lock()
	return m
}

// unlockSession releases the turn lock and drops the map entry once no
// other turn holds or waits on it.
func (s *Service) unlockSession(sessionID int64, m *sessionLock) {
	m.Unlock()

	s.mu.Lock()
	m.refs--
	if m.refs == 0 {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
}

// Ask runs one conversation turn and returns the assistant's reply.
//
// The user message is committed before the backend is dialed. If the
// backend fails, the error is returned and the user message stays
// persisted with no reply — a failed turn deliberately leaves the user
// row in place rather than rolling it back.
//
// explicitSystem, when non-empty, overrides the session's stored system
// prompt for this turn only. source tags the user message's origin.
func (s *Service) Ask(ctx context.Context, sessionID int64, userText, explicitSystem, source string) (string, error) {
	lock := s.lockSession(sessionID)
	defer s.unlockSession(sessionID, lock)

	userID, turn, err := s.store.AppendUser(sessionID, userText, source)
	if err != nil {
		return "", fmt.Errorf("appending user message: %w", err)
	}

	systemPrompt := explicitSystem
	if systemPrompt == "" {
		stored, ok, err := s.store.LatestSystemPrompt(sessionID)
		if err != nil {
			return "", fmt.Errorf("loading system prompt: %w", err)
		}
		if ok {
			systemPrompt = stored
		} else {
			systemPrompt = s.defaultSystem
		}
	}

	history, err := s.store.ReadContext(sessionID, s.maxContext)
	if err != nil {
		return "", fmt.Errorf("building context: %w", err)
	}

	messages := make([]ollama.ChatMessage, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, ollama.ChatMessage{Role: "system", Content: systemPrompt})
	}
	for _, rc := range history {
		messages = append(messages, ollama.ChatMessage{Role: rc.Role, Content: rc.Content})
	}

	exchangeID := uuid.NewString()
	s.log.Debug("dispatching turn",
		zap.Int64("session", sessionID),
		zap.Int("turn", turn),
		zap.Int("context_messages", len(messages)),
		zap.String("exchange_id", exchangeID))

	reply, err := s.backend.Chat(ctx, messages)
	if err != nil {
		s.log.Warn("backend call failed",
			zap.Int64("session", sessionID),
			zap.String("exchange_id", exchangeID),
			zap.Error(err))
		return "", err
	}

	meta := map[string]string{
		"model":       s.backend.Model(),
		"exchange_id": exchangeID,
	}
	if _, err := s.store.AppendAssistant(sessionID, reply, userID, turn, meta); err != nil {
		return "", fmt.Errorf("appending assistant reply: %w", err)
	}

	s.log.Debug("turn complete",
		zap.Int64("session", sessionID),
		zap.String("exchange_id", exchangeID),
		zap.Int("reply_chars", len(reply)))

	return reply, nil
}
