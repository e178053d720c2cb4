package store

import (
	"context"
	"errors"
)

var (
	// ErrRedisUnavailable wraps Redis transport and command failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrRecordCorrupt is returned when a persisted record cannot be decoded.
	ErrRecordCorrupt = errors.New("counter record corrupt")
	// ErrContention is returned when an optimistic update keeps losing races.
	ErrContention = errors.New("counter record contention")
	// ErrClosed is returned by an AsyncStore after Close.
	ErrClosed = errors.New("store closed")
)

// Record is the persisted counter state of one key. Timestamps are epoch
// milliseconds.
type Record struct {
	Key         string
	Counter     int64
	LastRequest int64
	ResetTime   int64
}

// Store is a keyed counter-record store.
type Store interface {
	// Get returns the record for key, or a zero record with Key set.
	Get(ctx context.Context, key string) (Record, error)
	// Save persists rec under rec.Key.
	Save(ctx context.Context, rec Record) error
}

// Updater is implemented by stores that can apply fn to a key's record as a
// single linearizable read-modify-write. fn may run more than once and must
// only mutate the record it is given.
type Updater interface {
	Update(ctx context.Context, key string, fn func(*Record) error) (Record, error)
}
