package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process backend.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory returns an empty memory backend.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// Name implements Backend.
func (m *Memory) Name() string { return "memory" }

// Load implements Backend.
func (m *Memory) Load(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Data = slices.Clone(r.Data)
	return &r, nil
}

// Stat implements Backend.
func (m *Memory) Stat(_ context.Context, id string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return r.Summary(), nil
}

// Save implements Backend.
func (m *Memory) Save(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	c.Data = slices.Clone(r.Data)
	m.records[r.ID] = c
	return nil
}

// Remove implements Backend.
func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// Scan implements Backend.
func (m *Memory) Scan(context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Summary())
	}
	return out, nil
}

// Close implements Backend.
func (m *Memory) Close() error { return nil }

var _ Backend = (*Memory)(nil)
