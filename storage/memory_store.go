package storage

import (
	"context"
	"sync"

	"ballot-backend/models"
)

// MemoryStore keeps ballots in process memory. It is the test double for
// BallotStore and counts Put calls so tests can assert the store was never
// reached.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]models.StorageRecord
	puts    int
	failErr error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]models.StorageRecord)}
}

// FailWith makes every following Put fail with err wrapped as a StoreError.
// A nil err restores normal behavior.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func (m *MemoryStore) Put(ctx context.Context, key models.DerivedKey, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if err := ctx.Err(); err != nil {
		return unavailable("put", key, err)
	}
	if m.failErr != nil {
		return unavailable("put", key, m.failErr)
	}
	record := models.NewStorageRecord(key, payload)
	m.objects[record.Key] = record
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key models.DerivedKey) (models.StorageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.objects[key.ObjectKey()]
	if !ok {
		return models.StorageRecord{}, ErrNotFound
	}
	return record, nil
}

// PutCount returns how many times Put was called.
func (m *MemoryStore) PutCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

