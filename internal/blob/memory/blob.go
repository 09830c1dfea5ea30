// Package memory archives blobs in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Store keeps blobs in a map and returns pseudo URIs. It implements
// news.BlobStore.
type Store struct {
	mu    sync.RWMutex
	data  map[string][]byte
	types map[string]string
}

// New creates an empty in-memory blob store.
func New() *Store {
	return &Store{
		data:  make(map[string][]byte),
		types: make(map[string]string),
	}
}

// Put stores a copy of data and returns a memory:// URI.
func (s *Store) Put(_ context.Context, path string, contentType string, data []byte) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = append([]byte(nil), data...)
	s.types[path] = contentType
	return fmt.Sprintf("memory://%s", path), nil
}

// Get returns a stored blob.
func (s *Store) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
