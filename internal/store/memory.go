package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory SnapshotStore. It is the default backend and
// the one used by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Put stores or replaces a record.
func (m *MemoryStore) Put(_ context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[record.ID] = record
	return nil
}

// GetOne returns the record with the given ID, or ErrNotFound.
func (m *MemoryStore) GetOne(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[id]
	if !exists {
		return nil, fmt.Errorf("record %q: %w", id, ErrNotFound)
	}
	return &record, nil
}

// List returns all stored records.
func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, 0, len(m.records))
	for _, record := range m.records {
		records = append(records, record)
	}
	return records, nil
}

// Delete removes the record with the given ID.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[id]; !exists {
		return fmt.Errorf("record %q: %w", id, ErrNotFound)
	}
	delete(m.records, id)
	return nil
}
