// Package middleware exposes a net/http adapter around goRateLimit.Engine.
//
// # Flow
//
// [RateLimit] resolves the consumer application of each request (bearer token
// client, then API key, then the anonymous application), calls
// Engine.Evaluate, copies the outcome headers onto the response in order and
// either forwards the request or writes the rejection as JSON.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT count
// requests or decide admission itself; every decision is delegated to
// Engine.Evaluate.
//
// # What this package must NOT do
//
//   - Access a counter store directly.
//   - Reject a request for authentication reasons. An unverifiable token only
//     demotes the caller to the next identity source.
//   - Reorder or rename the headers of an Outcome.
package middleware
