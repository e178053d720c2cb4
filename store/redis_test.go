package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStoreGetUnseenKey(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewRedisStore(rdb)

	rec, err := s.Get(context.Background(), "api:app:1:0")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec != (Record{Key: "api:app:1:0"}) {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestRedisStoreRoundTripAndLayout(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStore(rdb, WithPrefix("gw"))
	ctx := context.Background()

	want := Record{Key: "k", Counter: 4, LastRequest: 1000, ResetTime: 2000}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if v := mr.HGet("gw:k", "counter"); v != "4" {
		t.Fatalf("expected counter field 4, got %q", v)
	}
	// A reset time in the past must not delete the record.
	if mr.TTL("gw:k") != 0 {
		t.Fatalf("expected no TTL for past reset time, got %v", mr.TTL("gw:k"))
	}
}

func TestRedisStoreSetsExpiryAtResetTime(t *testing.T) {
	mr, rdb := newTestRedis(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mr.SetTime(now)
	s := NewRedisStore(rdb, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	rec := Record{Key: "k", Counter: 1, LastRequest: now.UnixMilli(), ResetTime: now.Add(time.Hour).UnixMilli()}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ttl := mr.TTL("rl:k"); ttl != time.Hour {
		t.Fatalf("expected 1h TTL, got %v", ttl)
	}

	mr.FastForward(time.Hour)
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Counter != 0 {
		t.Fatalf("expected expired record to read back as zero, got %+v", got)
	}
}

func TestRedisStoreCorruptRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStore(rdb)

	mr.HSet("rl:k", "counter", "not-a-number")

	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt, got %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStore(rdb)
	mr.Close()

	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from Get, got %v", err)
	}
	if err := s.Save(context.Background(), Record{Key: "k"}); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from Save, got %v", err)
	}
	_, err := s.Update(context.Background(), "k", func(*Record) error { return nil })
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from Update, got %v", err)
	}
}

func TestRedisStoreUpdateConcurrent(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewRedisStore(rdb, WithMaxRetries(1000))
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "k", func(r *Record) error {
				r.Counter++
				return nil
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Update failed: %v", err)
	}

	rec, _ := s.Get(ctx, "k")
	if rec.Counter != workers {
		t.Fatalf("expected %d, got %d", workers, rec.Counter)
	}
}

func TestRedisStoreUpdatePropagatesCallbackError(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewRedisStore(rdb)
	boom := errors.New("boom")

	_, err := s.Update(context.Background(), "k", func(*Record) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
