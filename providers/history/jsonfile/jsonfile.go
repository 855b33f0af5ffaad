// Package jsonfile persists conversation history as a single JSON document
// on disk. Every mutation rewrites the whole file via a temporary file and
// an atomic rename, so readers never observe a partially written store.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ssparihar/essayflow/providers/history"
)

// Store is a file-backed history.Store. It is safe for concurrent use within
// a single process; cross-process coordination is out of scope.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ history.Store = (*Store)(nil)

// New creates a Store backed by the JSON file at path. The file does not
// need to exist yet; a missing file reads as an empty store.
func New(path string) *Store {
	return &Store{path: path}
}

// Save writes the conversation under id, overwriting any existing one.
func (s *Store) Save(_ context.Context, id string, conversation history.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.readAll()
	if err != nil {
		return err
	}

	conversations[id] = conversation
	return s.writeAll(conversations)
}

// Load retrieves the conversation with the given id.
func (s *Store) Load(_ context.Context, id string) (history.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.readAll()
	if err != nil {
		return history.Conversation{}, false, err
	}

	conversation, exists := conversations[id]
	return conversation, exists, nil
}

// All returns every stored conversation keyed by ID.
func (s *Store) All(_ context.Context) (map[string]history.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readAll()
}

// Delete removes the conversation with the given id. Deleting a missing id
// is a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.readAll()
	if err != nil {
		return err
	}

	if _, exists := conversations[id]; !exists {
		return nil
	}

	delete(conversations, id)
	return s.writeAll(conversations)
}

// Clear removes every stored conversation.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeAll(map[string]history.Conversation{})
}

// readAll loads the full store from disk. A missing file is an empty store;
// a file that exists but cannot be parsed is an error, never silently
// discarded data.
func (s *Store) readAll() (map[string]history.Conversation, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]history.Conversation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return map[string]history.Conversation{}, nil
	}

	conversations := map[string]history.Conversation{}
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", s.path, err)
	}

	return conversations, nil
}

// writeAll replaces the store file atomically: marshal, write to a temp file
// in the same directory, fsync-free rename over the target.
func (s *Store) writeAll(conversations map[string]history.Conversation) error {
	data, err := json.MarshalIndent(conversations, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	directory := filepath.Dir(s.path)
	temporary, err := os.CreateTemp(directory, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return fmt.Errorf("failed to write temp history file: %w", err)
	}

	if err := temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("failed to close temp history file: %w", err)
	}

	if err := os.Rename(temporary.Name(), s.path); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}
