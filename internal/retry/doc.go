// Package retry decides whether a failed HTTP attempt is worth repeating
// and how long to wait before doing so.
//
// The policy is a pure function of (error, status, attempt): HTTP 429, any
// 5xx, and network-level failures are transient; every other 4xx is final.
// Backoff grows exponentially per attempt under a hard attempt cap, so the
// worst-case latency of one logical request is bounded.
//
// The 401 path is deliberately outside this package: an expired access
// token is handled by the refresh coordinator with a single replay, not by
// backoff.
package retry
