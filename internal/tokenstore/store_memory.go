package tokenstore

import (
	"context"
	"fmt"
	"sync"

	"forkful/pkg/platform/sentinel"
)

// InMemoryStore keeps tokens for the lifetime of the process. Used by tests and
// by sessions that should not survive a restart.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemory constructs an empty in-memory token store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{values: make(map[string]string)}
}

func (s *InMemoryStore) Get(_ context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("token %s: %w", name, sentinel.ErrNotFound)
}

func (s *InMemoryStore) Set(_ context.Context, name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, names ...string) error {
	if err := validateNames(names); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.values, name)
	}
	return nil
}
