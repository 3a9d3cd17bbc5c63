package guest

import (
	"context"
	"sync"
)

// MemoryStorage keeps guest data in process memory. Used when no Redis is configured.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	sessionID, ok := SessionFromContext(ctx)
	if !ok {
		return "", false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, found := s.data[sessionID+":"+key]
	return value, found, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	sessionID, ok := SessionFromContext(ctx)
	if !ok {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sessionID+":"+key] = value
	return nil
}

func (s *MemoryStorage) Remove(ctx context.Context, key string) error {
	sessionID, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, sessionID+":"+key)
	return nil
}
