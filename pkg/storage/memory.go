package storage

import (
	"fmt"
	"slices"
	"sync"
)

// MemoryStorage keeps artifacts in memory, mostly for tests
// Stored and returned slices are copies
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string][]byte)}
}

// Get returns the artifact at key, or nil if there is none
func (s *MemoryStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.files[key]), nil
}

// Put replaces the artifact at key
func (s *MemoryStorage) Put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil {
		data = []byte{}
	}
	s.files[key] = slices.Clone(data)
	return nil
}

// Exists reports whether an artifact was stored at key
func (s *MemoryStorage) Exists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[key]
	return ok, nil
}

func (s *MemoryStorage) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("MemoryStorage{files: %d}", len(s.files))
}
