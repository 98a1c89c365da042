// Package codepoints assigns private-use Unicode code points to icon glyphs.
package codepoints

import (
	"context"
	"maps"
	"sync"
)

// Store persists name→code point assignments per font.
type Store interface {
	Load(ctx context.Context, font string) (map[string]rune, error)
	Save(ctx context.Context, font string, assigned map[string]rune) error
	Close() error
}

// MemoryStore keeps assignments for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	fonts map[string]map[string]rune
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fonts: make(map[string]map[string]rune)}
}

func (s *MemoryStore) Load(_ context.Context, font string) (map[string]rune, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.fonts[font]), nil
}

func (s *MemoryStore) Save(_ context.Context, font string, assigned map[string]rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fonts[font] = maps.Clone(assigned)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
