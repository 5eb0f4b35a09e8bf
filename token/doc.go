// Package token provides durable storage for the access/refresh token pair
// that represents an authenticated session.
//
// # Design
//
// A [Store] is a small context-aware key-value surface: set the pair, read
// the pair, clear the pair. Backends exist for in-process memory, plaintext
// JSON files, age-encrypted files, and Redis. [Tiered] layers a preferred
// backend over a fallback so that a failing primary (a corrupt sealed file,
// an unreachable Redis) degrades to the fallback instead of surfacing to
// request handling.
//
// # Architecture boundaries
//
// This package owns token persistence only. It never performs HTTP calls,
// never decides when a refresh happens, and never interprets token contents.
//
// # What this package must NOT do
//
//   - Mutate a stored pair in place: callers go through SetTokens/Clear.
//   - Surface primary-tier storage errors from Tiered reads or writes.
//   - Pretend to encrypt: the sealed backend requires an explicit passphrase.
package token
