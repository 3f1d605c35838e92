package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for one-shot runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get returns a copy of the cached entry, or (nil, nil) when not cached.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key.ID()]
	if !ok {
		return nil, nil // Not cached
	}
	return copyEntry(entry), nil
}

// Put stores a copy of the entry under the key.
func (s *MemoryStore) Put(_ context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.ID()] = copyEntry(entry)
	return nil
}

// Delete removes the cached entry for the key.
func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.ID())
	return nil
}

// Close implements Store. It is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func copyEntry(entry *Entry) *Entry {
	cp := *entry
	cp.Body = append([]byte(nil), entry.Body...)
	return &cp
}
