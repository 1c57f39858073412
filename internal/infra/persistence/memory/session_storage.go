package memory

import (
	"context"
	"shipfin/pkg/domain"
	"sync"
)

var _ domain.SessionStorage = (*SessionStorage)(nil)

// SessionStorage is a process-local key-value slot for the persisted session.
// It is the default when no durable storage driver is configured.
type SessionStorage struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewSessionStorage constructs an empty storage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{slots: make(map[string][]byte)}
}

// Get returns a copy of the payload stored under key.
func (s *SessionStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

// Put replaces the payload stored under key.
func (s *SessionStorage) Put(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), payload...)
	return nil
}
