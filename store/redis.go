package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldCounter     = "counter"
	fieldLastRequest = "last_request"
	fieldResetTime   = "reset_time"
)

const defaultMaxRetries = 16

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the Redis key namespace. The default is "rl".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithMaxRetries bounds the optimistic retries performed by Update.
func WithMaxRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithClock overrides the clock used to decide whether a reset time is still
// in the future when setting key expiry.
func WithClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// RedisStore keeps each record in a Redis hash with the fields counter,
// last_request and reset_time, stored under "<prefix>:<key>".
//
// Keys expire at their reset time when that instant is still ahead of the
// store clock. An expired key reads back as a zero record, which the engine
// treats exactly like a rolled-over window.
//
//	Performance: Get is 1 HGETALL; Save is 1 MULTI/EXEC; Update is WATCH +
//	HGETALL + MULTI/EXEC per attempt.
type RedisStore struct {
	redis      redis.UniversalClient
	prefix     string
	maxRetries int
	now        func() time.Time
}

// NewRedisStore creates a [RedisStore] backed by the given client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		redis:      client,
		prefix:     "rl",
		maxRetries: defaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	return s.read(ctx, s.redis, key)
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.write(ctx, pipe, rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Update runs fn inside a WATCH transaction on the record's key and retries
// when a concurrent writer touched the key first.
func (s *RedisStore) Update(ctx context.Context, key string, fn func(*Record) error) (Record, error) {
	var (
		out   Record
		fnErr error
	)

	txf := func(tx *redis.Tx) error {
		rec, err := s.read(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			fnErr = err
			return err
		}
		rec.Key = key

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, rec)
			return nil
		})
		if err != nil {
			return err
		}
		out = rec
		return nil
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.redis.Watch(ctx, txf, s.key(key))
		switch {
		case err == nil:
			return out, nil
		case fnErr != nil:
			return Record{}, fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrRedisUnavailable), errors.Is(err, ErrRecordCorrupt):
			return Record{}, err
		default:
			return Record{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return Record{}, fmt.Errorf("%w: %s after %d attempts", ErrContention, key, s.maxRetries)
}

func (s *RedisStore) read(ctx context.Context, c redis.Cmdable, key string) (Record, error) {
	fields, err := c.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{Key: key}, nil
		}
		return Record{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return decodeRecord(key, fields)
}

func (s *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, rec Record) {
	k := s.key(rec.Key)
	pipe.HSet(ctx, k,
		fieldCounter, rec.Counter,
		fieldLastRequest, rec.LastRequest,
		fieldResetTime, rec.ResetTime,
	)
	if rec.ResetTime > s.now().UnixMilli() {
		pipe.PExpireAt(ctx, k, time.UnixMilli(rec.ResetTime))
	}
}

func decodeRecord(key string, fields map[string]string) (Record, error) {
	rec := Record{Key: key}
	if len(fields) == 0 {
		return rec, nil
	}

	var err error
	if rec.Counter, err = parseField(fields, fieldCounter); err != nil {
		return Record{}, err
	}
	if rec.LastRequest, err = parseField(fields, fieldLastRequest); err != nil {
		return Record{}, err
	}
	if rec.ResetTime, err = parseField(fields, fieldResetTime); err != nil {
		return Record{}, err
	}
	if rec.Counter < 0 {
		return Record{}, fmt.Errorf("%w: negative counter for %s", ErrRecordCorrupt, key)
	}
	return rec, nil
}

func parseField(fields map[string]string, name string) (int64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %v", ErrRecordCorrupt, name, err)
	}
	return v, nil
}
