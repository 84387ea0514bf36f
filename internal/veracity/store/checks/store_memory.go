package checks

import (
	"context"
	"sync"

	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
)

// MemoryStore is an in-memory checks store for tests and ephemeral runs.
// Entries never expire; the underlying facts are immutable per version.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[models.Package]models.Checks
}

// NewMemoryStore creates an empty in-memory checks store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[models.Package]models.Checks)}
}

// Find retrieves the cached checks for pkg.
// Returns ports.ErrNotFound if the package has not been stored.
func (s *MemoryStore) Find(_ context.Context, pkg models.Package) (models.Checks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	checks, ok := s.entries[pkg]
	if !ok {
		return models.Checks{}, ports.ErrNotFound
	}
	return checks, nil
}

// Save stores the checks for pkg, replacing any previous entry.
func (s *MemoryStore) Save(_ context.Context, pkg models.Package, checks models.Checks) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[pkg] = checks
	return nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
