package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryTicketStore is the process-local fallback used when no Redis URL is
// configured. Entries live until taken or until their ttl passes.
type MemoryTicketStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	nowFn func() time.Time
}

func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{items: map[string]memoryEntry{}, nowFn: time.Now}
}

func (s *MemoryTicketStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	s.evictLocked(now)
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	s.items[key] = entry
	return nil
}

func (s *MemoryTicketStore) Take(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[key]
	if !ok {
		return "", false, nil
	}
	delete(s.items, key)
	if entry.expired(s.nowFn()) {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Len reports how many unexpired entries are held.
func (s *MemoryTicketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(s.nowFn())
	return len(s.items)
}

func (s *MemoryTicketStore) evictLocked(now time.Time) {
	for key, entry := range s.items {
		if entry.expired(now) {
			delete(s.items, key)
		}
	}
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
