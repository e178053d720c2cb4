// Package limiter evaluates an ordered list of fixed-window tiers against a
// counter store and decides whether a request is admitted.
//
// # Evaluation
//
// For each tier, in declaration order: build the key, read the record, reset
// the counter in memory when the window has closed (now >= end of window),
// admit (counter+1, lastRequest=now) or mark the tier exceeded, recompute the
// reset time, persist, and emit headers. The first exceeded tier rejects the
// request with 429 and later tiers are not touched.
//
// In strict mode the read-modify-write of a tier runs through [store.Updater]
// when the store provides it. In relaxed mode plain Get/Save is used.
//
// # What this package must NOT do
//
//   - Log, record metrics or read the wall clock; callers own those concerns.
//   - Retry store calls. A failing store call ends the evaluation with a 500.
//   - Write headers to a transport. Headers are returned in the [Outcome].
package limiter
