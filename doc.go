// Package goRateLimit provides a tiered fixed-window admission engine for API
// gateways: every request is counted against one or more (limit, period) tiers
// per API, consumer application and path, and is admitted or rejected with
// X-Rate-Limit-* (or X-Quota-*) headers.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goRateLimit is the public surface. It exposes [Engine], [Builder], [Config]
// and the value types a gateway needs to act on a decision ([Outcome],
// [Header], [Result]). Window arithmetic, key derivation and the per-tier
// evaluation loop live under internal/ and are never exported. Counter
// persistence is pluggable through the store package.
//
// # What this package must NOT do
//
//   - Write to an HTTP response or call the next handler; middleware does that.
//   - Retry or fall back to admitting when the counter store fails.
//   - Perform I/O outside of Engine methods (construction via Builder only
//     wires dependencies).
//   - Import any sub-package that re-imports goRateLimit (no import cycles).
//
// # Performance contract
//
// Evaluate costs one store round-trip per tier evaluated in relaxed mode, and
// one atomic update per tier in strict mode. It stops at the first exceeded
// tier.
package goRateLimit
