package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncConfig controls the write-behind queue of an AsyncStore.
type AsyncConfig struct {
	BufferSize   int
	DropIfFull   bool
	FlushTimeout time.Duration
	// OnError receives flush failures. It runs on the worker goroutine.
	OnError func(rec Record, err error)
}

type pendingWrite struct {
	rec Record
	seq uint64
}

// AsyncStore trades strict consistency for latency: Save enqueues the record
// and returns, a single worker persists it to the wrapped Store.
//
// Get answers from the pending overlay before reaching the wrapped store, so
// callers on this instance observe their own writes. Other instances observe
// them once flushed. AsyncStore deliberately does not implement Updater.
type AsyncStore struct {
	inner Store
	cfg   AsyncConfig

	// sendMu is held shared by Save while enqueueing and exclusively by
	// Close, so no write is queued after the worker starts draining.
	sendMu    sync.RWMutex
	ch        chan pendingWrite
	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingWrite

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewAsyncStore starts the write-behind worker for inner.
func NewAsyncStore(inner Store, cfg AsyncConfig) *AsyncStore {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = time.Second
	}

	s := &AsyncStore{
		inner:   inner,
		cfg:     cfg,
		ch:      make(chan pendingWrite, cfg.BufferSize),
		done:    make(chan struct{}),
		pending: make(map[string]pendingWrite),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *AsyncStore) run() {
	defer s.wg.Done()

	for {
		select {
		case w := <-s.ch:
			s.flush(w)
		case <-s.done:
			for {
				select {
				case w := <-s.ch:
					s.flush(w)
				default:
					return
				}
			}
		}
	}
}

func (s *AsyncStore) flush(w pendingWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FlushTimeout)
	err := s.inner.Save(ctx, w.rec)
	cancel()

	if err != nil {
		s.failed.Add(1)
		if s.cfg.OnError != nil {
			s.cfg.OnError(w.rec, err)
		}
	}
	s.release(w)
}

func (s *AsyncStore) release(w pendingWrite) {
	s.mu.Lock()
	if cur, ok := s.pending[w.rec.Key]; ok && cur.seq == w.seq {
		delete(s.pending, w.rec.Key)
	}
	s.mu.Unlock()
}

func (s *AsyncStore) Get(ctx context.Context, key string) (Record, error) {
	s.mu.Lock()
	w, ok := s.pending[key]
	s.mu.Unlock()
	if ok {
		return w.rec, nil
	}
	return s.inner.Get(ctx, key)
}

// Save stages rec in the overlay and enqueues it. With DropIfFull a full
// queue drops the write; otherwise Save waits for room or for ctx. A blocked
// Save delays Close until the worker makes room.
func (s *AsyncStore) Save(ctx context.Context, rec Record) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.seq++
	w := pendingWrite{rec: rec, seq: s.seq}
	s.pending[rec.Key] = w
	s.mu.Unlock()

	if s.cfg.DropIfFull {
		select {
		case s.ch <- w:
		default:
			s.dropped.Add(1)
			s.release(w)
		}
		return nil
	}

	select {
	case s.ch <- w:
		return nil
	case <-ctx.Done():
		s.release(w)
		return ctx.Err()
	}
}

// Close stops accepting writes, flushes what is queued and waits for the
// worker to exit.
func (s *AsyncStore) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.sendMu.Lock()
		s.closed.Store(true)
		close(s.done)
		s.sendMu.Unlock()
		s.wg.Wait()
	})
}

// Dropped returns the number of writes discarded because the queue was full.
func (s *AsyncStore) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// Failed returns the number of flushes the wrapped store rejected.
func (s *AsyncStore) Failed() uint64 {
	if s == nil {
		return 0
	}
	return s.failed.Load()
}

// Pending returns the number of keys with an unflushed write.
func (s *AsyncStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
