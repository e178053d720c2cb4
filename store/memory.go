package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store and Updater.
//
// It is safe for concurrent use, but its state is local to the process. Use
// RedisStore when several gateway instances must share one budget.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.load(key), nil
}

func (m *MemoryStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.records[rec.Key] = rec
	m.mu.Unlock()
	return nil
}

// Update applies fn under the store lock.
func (m *MemoryStore) Update(ctx context.Context, key string, fn func(*Record) error) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.load(key)
	if err := fn(&rec); err != nil {
		return Record{}, err
	}
	rec.Key = key
	m.records[key] = rec
	return rec, nil
}

// Sweep drops records whose reset time is at or before now and returns how
// many were removed. A dropped record would have rolled over on its next
// evaluation anyway, so sweeping never changes a decision.
func (m *MemoryStore) Sweep(now time.Time) int {
	cutoff := now.UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.records {
		if rec.ResetTime > 0 && rec.ResetTime <= cutoff {
			delete(m.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MemoryStore) load(key string) Record {
	rec, ok := m.records[key]
	if !ok {
		return Record{Key: key}
	}
	return rec
}
