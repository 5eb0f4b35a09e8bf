package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/token"
)

// Outcome is the shared result delivered to every caller of one refresh
// attempt.
type Outcome struct {
	Tokens token.Pair
	Err    error
}

// Deps captures coordinator dependencies. Sentinel errors are injected so
// this package never imports the root package.
type Deps struct {
	// Refresh exchanges the current refresh token for a new pair. Any
	// error is treated as refresh failure; there is no retry here.
	Refresh func(ctx context.Context, refreshToken string) (token.Pair, error)

	ReadTokens  func(ctx context.Context) (token.Pair, error)
	WriteTokens func(ctx context.Context, pair token.Pair) error

	// Logout is the forced-logout side effect, fired on irrecoverable
	// auth failure subject to the cooldown guard. May be nil.
	Logout func()

	// Cooldown is the minimum interval between forced logouts.
	Cooldown time.Duration

	// NoSession is returned when no refresh token exists. Injected by the
	// root package so callers can match it with errors.Is.
	NoSession error

	Now  func() time.Time
	Warn func(string, ...any)

	// Metric hooks; any may be nil.
	OnCoalesced    func()
	OnShortCircuit func()
	OnSuppressed   func()
}

// Coordinator serializes token refresh. Construct one per client; all
// state is instance-owned, nothing is package-global.
type Coordinator struct {
	deps Deps

	mu         sync.Mutex
	refreshing bool
	waiters    []chan Outcome
	lastLogout time.Time
}

// New creates a coordinator in the idle state.
func New(deps Deps) *Coordinator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Coordinator{deps: deps}
}

// Refresh returns a token pair freshly obtained from the backend. The
// first caller while idle performs the exchange; concurrent callers join
// the queue and receive the same outcome. A caller whose ctx ends while
// queued gets its ctx error; the refresh itself is not cancelled.
func (c *Coordinator) Refresh(ctx context.Context) (token.Pair, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan Outcome, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		if c.deps.OnCoalesced != nil {
			c.deps.OnCoalesced()
		}
		select {
		case out := <-ch:
			return out.Tokens, out.Err
		case <-ctx.Done():
			return token.Pair{}, ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	out := c.exchange(ctx)
	c.drain(out)
	return out.Tokens, out.Err
}

// Quiesce blocks until no refresh is in flight. Logout must clear tokens
// only after any in-flight refresh has resolved, otherwise the refresh
// completion would resurrect the pair the logout just removed.
func (c *Coordinator) Quiesce(ctx context.Context) error {
	c.mu.Lock()
	if !c.refreshing {
		c.mu.Unlock()
		return nil
	}
	ch := make(chan Outcome, 1)
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoteLogout records a user-initiated logout so that a trailing burst of
// 401s does not force a second one inside the cooldown window.
func (c *Coordinator) NoteLogout() {
	c.mu.Lock()
	c.lastLogout = c.deps.Now()
	c.mu.Unlock()
}

func (c *Coordinator) exchange(ctx context.Context) Outcome {
	current, err := c.deps.ReadTokens(ctx)
	if err != nil {
		c.warnf("refresh: token store read failed: %v", err)
	}

	if current.RefreshToken == "" {
		if c.deps.OnShortCircuit != nil {
			c.deps.OnShortCircuit()
		}
		c.forceLogout()
		return Outcome{Err: c.deps.NoSession}
	}

	pair, err := c.deps.Refresh(ctx, current.RefreshToken)
	if err != nil {
		// A canceled or timed-out leader says nothing about the session:
		// the refresh token is still good, so tearing the session down
		// here would let one aborted request log the user out.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.forceLogout()
		}
		return Outcome{Err: err}
	}

	// Servers in fixed-rotation mode omit the refresh token; keep ours.
	if pair.RefreshToken == "" {
		pair.RefreshToken = current.RefreshToken
	}

	if err := c.deps.WriteTokens(ctx, pair); err != nil {
		// The pair in hand is valid; persistence failure must not fail
		// the requests waiting on it.
		c.warnf("refresh: token store write failed: %v", err)
	}

	return Outcome{Tokens: pair}
}

// drain resolves the waiter queue exactly once, in FIFO order. Waiter
// channels are buffered, so no send blocks and no waiter can starve the
// ones behind it.
func (c *Coordinator) drain(out Outcome) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- out
	}
}

// forceLogout fires the logout side effect unless one already fired
// within the cooldown window.
func (c *Coordinator) forceLogout() {
	c.mu.Lock()
	now := c.deps.Now()
	if !c.lastLogout.IsZero() && now.Sub(c.lastLogout) < c.deps.Cooldown {
		c.mu.Unlock()
		if c.deps.OnSuppressed != nil {
			c.deps.OnSuppressed()
		}
		return
	}
	c.lastLogout = now
	c.mu.Unlock()

	if c.deps.Logout != nil {
		c.deps.Logout()
	}
}

func (c *Coordinator) warnf(format string, args ...any) {
	if c.deps.Warn != nil {
		c.deps.Warn(format, args...)
	}
}
