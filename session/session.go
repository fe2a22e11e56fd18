// Package session provides conversation history storage. The in-memory
// store is the default; callers with durability requirements can supply
// their own core.SessionStore.
package session

import (
	"sync"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// InMemoryStore is a thread-safe, in-memory core.SessionStore. History is
// kept per session for the lifetime of the process.
type InMemoryStore struct {
	histories map[string][]core.Interaction
	mu        sync.RWMutex
}

// Ensure interface compliance.
var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		histories: make(map[string][]core.Interaction),
	}
}

// Append records an interaction at the end of the session's history.
func (s *InMemoryStore) Append(sessionID string, it core.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[sessionID] = append(s.histories[sessionID], it)

	return nil
}

// History returns a copy of the session's interactions in append order. An
// unknown session yields an empty history, not an error.
func (s *InMemoryStore) History(sessionID string) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[sessionID]
	out := make([]core.Interaction, len(history))
	copy(out, history)

	return out, nil
}

// Clear removes all history for a session.
func (s *InMemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.histories, sessionID)
}

// Sessions returns the IDs of all sessions with recorded history.
func (s *InMemoryStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}

	return ids
}
