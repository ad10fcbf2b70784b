package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/atelier/pkg/domain"
)

// Store implements ports.ObjectStore and ports.ObjectLister in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Exists reports whether path is stored.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[path]
	return ok, nil
}

// Get returns a copy so callers can't mutate stored artifacts.
func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(data), nil
}

// Put stores a copy of data.
func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = slices.Clone(data)
	return nil
}

// Delete removes the artifact.
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path)
	return nil
}

// List returns the stored paths starting with prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.data))
	for p := range s.data {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)
	return paths, nil
}
