package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value   string
	updated time.Time
}

// MemoryStore is an in-process Backend. Contents are lost on exit.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]memEntry
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]memEntry)}
}

func (m *MemoryStore) Session(id string) KV {
	return &memSession{store: m, id: id}
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) PruneSessions(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, entries := range m.sessions {
		var newest time.Time
		for _, e := range entries {
			if e.updated.After(newest) {
				newest = e.updated
			}
		}
		if newest.Before(cutoff) {
			n += len(entries)
			delete(m.sessions, id)
		}
	}
	return n, nil
}

type memSession struct {
	store *MemoryStore
	id    string
}

func (s *memSession) Get(_ context.Context, key string) (string, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	e, ok := s.store.sessions[s.id][key]
	return e.value, ok, nil
}

func (s *memSession) Set(_ context.Context, key, value string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	entries := s.store.sessions[s.id]
	if entries == nil {
		entries = make(map[string]memEntry)
		s.store.sessions[s.id] = entries
	}
	entries[key] = memEntry{value: value, updated: time.Now()}
	return nil
}

func (s *memSession) Delete(_ context.Context, key string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.sessions[s.id], key)
	return nil
}

func (s *memSession) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	n := 0
	for key := range s.store.sessions[s.id] {
		if strings.HasPrefix(key, prefix) {
			delete(s.store.sessions[s.id], key)
			n++
		}
	}
	return n, nil
}
