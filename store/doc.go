// Package store defines the counter-store contract used by the admission engine
// and ships three implementations of it.
//
// # Contract
//
// A [Store] holds one [Record] per key. Get never reports "not found": an
// unseen key yields a zero record carrying that key. Save must be visible to
// a subsequent Get of the same key.
//
// Stores that can make a key's read-modify-write atomic across concurrent
// callers also implement [Updater]. The engine uses it in strict mode.
//
// # Implementations
//
//   - [MemoryStore]: process-local map; Update is serialized by a mutex.
//   - [RedisStore]: one Redis hash per key; Update uses WATCH/MULTI with a
//     bounded number of optimistic retries. Keys expire at their reset time.
//   - [AsyncStore]: write-behind wrapper for relaxed mode. Saves are queued
//     and flushed by a background worker; Get serves pending writes first so a
//     single instance reads its own writes.
//
// # What this package must NOT do
//
//   - Make admission decisions or know about tiers and limits.
//   - Import the root package or anything under internal/.
package store
