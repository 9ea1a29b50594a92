package kv

import (
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store. Expired entries are
// dropped lazily on read and swept by a background ticker.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	done chan struct{}
}

// NewMemoryStore constructs a MemoryStore and starts its sweeper.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]memoryEntry),
		done: make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.Delete(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a value. A zero ttl never expires; a negative ttl is
// already expired.
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl != 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = entry
	s.mu.Unlock()
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

func (s *MemoryStore) Keys(prefix string) []string {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k, entry := range s.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func (s *MemoryStore) Close() error {
	close(s.done)
	return nil
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for k, entry := range s.data {
				if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
					delete(s.data, k)
				}
			}
			s.mu.Unlock()
		}
	}
}
