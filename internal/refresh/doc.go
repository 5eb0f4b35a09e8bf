// Package refresh coordinates token renewal so that any number of requests
// observing an expired access token produce at most one refresh call.
//
// # Design
//
// The coordinator owns three pieces of state behind one mutex: the
// in-flight flag, the FIFO waiter queue, and the timestamp of the last
// forced logout. The first caller to find the coordinator idle flips the
// flag and performs the refresh; everyone else appends a buffered waiter
// channel under the same lock and blocks. When the refresh resolves, the
// queue is drained exactly once, in arrival order, with a single shared
// outcome — no waiter can observe a partially drained queue or a token
// different from its neighbors'.
//
// # What this package must NOT do
//
//   - Call the refresh endpoint more than once per drain cycle.
//   - Fire the forced-logout side effect inside the cooldown window.
//   - Hold the mutex across any I/O.
package refresh
