package featureflag

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store, useful for tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]Flag)}
}

// SetFlag inserts or replaces a flag record.
func (s *MemoryStore) SetFlag(flag Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flag.Name] = flag
}

// DeleteFlag removes a flag record if present.
func (s *MemoryStore) DeleteFlag(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, name)
}

// GetFlag implements Store.
func (s *MemoryStore) GetFlag(ctx context.Context, name string) (*Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flag, ok := s.flags[name]
	if !ok {
		return nil, ErrFlagNotFound
	}
	out := flag
	if flag.RolloutPct != nil {
		pct := *flag.RolloutPct
		out.RolloutPct = &pct
	}
	return &out, nil
}
