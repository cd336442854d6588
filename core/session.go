package core

import (
	"sync"
	"time"
)

// Session is a conversational container tracking the role-tagged message
// history retained across turns within one session. It is safe for
// concurrent access.
//
// Contract:
//   - Append updates the Updated timestamp
//   - History returns a defensive copy to avoid external mutation
//   - Clone performs a deep copy for safe divergence
type Session struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	mu       sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Messages: []Message{}, Created: now, Updated: now}
}

// Append adds messages to the history updating the Updated timestamp.
func (s *Session) Append(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msgs...)
	s.Updated = time.Now()
}

// History returns a defensive copy of the full message history.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]Message, len(s.Messages))
	copy(history, s.Messages)
	return history
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{ID: s.ID, Messages: make([]Message, len(s.Messages)), Created: s.Created, Updated: s.Updated}
	copy(clone.Messages, s.Messages)
	return clone
}

// SessionStore persists sessions and their evolving message history. The
// store is the only process-wide shared resource besides the CallLimiter;
// implementations must be safe for concurrent use.
type SessionStore interface {
	Create(id string) (*Session, error)
	Get(id string) (*Session, error)
	AppendMessages(sessionID string, msgs ...Message) error
}
