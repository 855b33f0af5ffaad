// Package inmemory provides a history.Store that lives entirely in process
// memory. Conversations are lost on exit; use it for tests and ephemeral
// sessions.
package inmemory

import (
	"context"
	"sync"

	"github.com/ssparihar/essayflow/providers/history"
)

// Store is an in-memory history.Store safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]history.Conversation
}

var _ history.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{conversations: make(map[string]history.Conversation)}
}

// Save writes the conversation under id, overwriting any existing one.
func (s *Store) Save(_ context.Context, id string, conversation history.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[id] = conversation
	return nil
}

// Load retrieves the conversation with the given id.
func (s *Store) Load(_ context.Context, id string) (history.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, exists := s.conversations[id]
	return conversation, exists, nil
}

// All returns a copy of every stored conversation keyed by ID.
func (s *Store) All(_ context.Context) (map[string]history.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[string]history.Conversation, len(s.conversations))
	for id, conversation := range s.conversations {
		all[id] = conversation
	}
	return all, nil
}

// Delete removes the conversation with the given id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
	return nil
}

// Clear removes every stored conversation.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make(map[string]history.Conversation)
	return nil
}
