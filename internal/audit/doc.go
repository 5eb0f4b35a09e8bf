// Package audit provides asynchronous event dispatch for goAuthClient.
//
// Events describe auth lifecycle transitions (login, refresh, forced
// logout) and notable request outcomes (retries, storage fallbacks). The
// dispatcher forwards them to a caller-supplied [Sink] from a single
// goroutine so that emitting from the request path never blocks on sink
// latency.
package audit
