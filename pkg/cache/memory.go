package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryEntries bounds a Memory cache created with size 0.
const DefaultMemoryEntries = 256

// Memory is an in-process cache holding at most a fixed number of entries.
// When full, the oldest inserted entry is evicted. It is safe for
// concurrent use.
type Memory struct {
	mu      sync.Mutex
	max     int
	entries map[string]memEntry
	order   []string // insertion order, oldest first; may hold stale keys
	now     func() time.Time
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemory returns a cache holding up to size entries.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &Memory{max: size, entries: make(map[string]memEntry), now: time.Now}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set implements Cache. The data is stored without copying.
func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{data: data}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = e
	m.evict()
	return nil
}

func (m *Memory) evict() {
	for len(m.entries) > m.max && len(m.order) > 0 {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	// Drop keys deleted or expired since they were queued.
	if len(m.order) > 2*m.max {
		live := m.order[:0]
		for _, k := range m.order {
			if _, ok := m.entries[k]; ok {
				live = append(live, k)
			}
		}
		m.order = live
	}
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close implements Cache.
func (m *Memory) Close() error { return nil }

var _ Cache = (*Memory)(nil)
