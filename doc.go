// Package goAuthClient provides an authenticated HTTP client with
// coordinated token refresh, transient-error retry, and tiered durable
// token storage.
//
// The client attaches bearer tokens to outbound requests, retries 429/5xx
// and network failures with capped exponential backoff, and on a 401
// funnels every concurrent request through a single refresh call before
// replaying each of them exactly once with the new access token.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Client], [Builder],
// [Config], and value types (MetricsSnapshot, AuditEvent, etc.). All
// internal coordination — the request pipeline, single-flight refresh,
// retry policy, audit dispatch — lives under internal/ and is never
// exported. Token persistence lives in the token sub-package.
//
// # What this package must NOT do
//
//   - Expose storage backends, coordinator state, or pipeline internals
//     in its public API.
//   - Perform I/O outside of Client methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports goAuthClient (no import
//     cycles).
//
// # Concurrency contract
//
// Client methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. For any number of requests that
// observe a 401 concurrently, exactly one refresh call reaches the
// backend; the rest wait and replay with the same new token.
package goAuthClient
