package token

import (
	"context"
	"errors"
)

// Tiered layers a preferred primary store over a fallback store.
//
// Writes go to the fallback first so that the pair is persisted even when
// the primary throws, then to the primary best-effort. Reads prefer the
// primary and degrade to the fallback on any error, or when the primary
// reads empty while the fallback holds a pair (the state a swallowed
// primary write failure leaves behind). Primary failures are reported
// through Warn and OnFallback; they never reach the caller.
type Tiered struct {
	primary  Store
	fallback Store
	warn     func(string, ...any)

	// OnFallback is invoked with the failing operation ("set" or "get")
	// whenever the primary store errors and the fallback serves the call.
	// Used for metrics; may be nil.
	OnFallback func(op string)
}

// NewTiered creates a tiered store. warn may be nil.
func NewTiered(primary, fallback Store, warn func(string, ...any)) *Tiered {
	return &Tiered{
		primary:  primary,
		fallback: fallback,
		warn:     warn,
	}
}

// SetTokens writes the fallback tier first, then the primary. A fallback
// failure is returned; a primary failure is swallowed so that encrypted or
// remote tiers cannot block persistence.
func (t *Tiered) SetTokens(ctx context.Context, pair Pair) error {
	if err := t.fallback.SetTokens(ctx, pair); err != nil {
		return err
	}

	if err := t.primary.SetTokens(ctx, pair); err != nil {
		t.warnf("token: primary store set failed: %v", err)
		t.fellBack("set")
	}
	return nil
}

// Tokens reads the primary tier, falling back on any error. A primary
// that reads empty is also cross-checked against the fallback: a swallowed
// primary write failure leaves the pair only in the fallback, and absence
// reads as a zero pair with a nil error, not as an error.
func (t *Tiered) Tokens(ctx context.Context) (Pair, error) {
	pair, err := t.primary.Tokens(ctx)
	if err != nil {
		t.warnf("token: primary store read failed: %v", err)
		t.fellBack("get")
		return t.fallback.Tokens(ctx)
	}
	if !pair.Zero() {
		return pair, nil
	}

	fallbackPair, err := t.fallback.Tokens(ctx)
	if err != nil {
		return Pair{}, err
	}
	if !fallbackPair.Zero() {
		t.fellBack("get")
	}
	return fallbackPair, nil
}

// Clear removes the pair from both tiers. Clearing an empty store is a
// no-op on every backend, so Clear is idempotent.
func (t *Tiered) Clear(ctx context.Context) error {
	return errors.Join(
		t.primary.Clear(ctx),
		t.fallback.Clear(ctx),
	)
}

func (t *Tiered) warnf(format string, args ...any) {
	if t.warn != nil {
		t.warn(format, args...)
	}
}

func (t *Tiered) fellBack(op string) {
	if t.OnFallback != nil {
		t.OnFallback(op)
	}
}
