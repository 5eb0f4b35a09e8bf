package token

import (
	"context"
	"time"
)

// Pair is the access/refresh token combination representing a session.
// Both fields present means a valid session; a refresh token alone still
// counts as "has tokens" because it can mint a new access token.
type Pair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// HasTokens reports whether the pair can produce a session at all.
// Only the refresh token counts; an access token alone cannot be renewed.
func (p Pair) HasTokens() bool {
	return p.RefreshToken != ""
}

// Valid reports whether the pair represents a currently usable session:
// both tokens present.
func (p Pair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Zero reports whether the pair holds no tokens at all.
func (p Pair) Zero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Store persists a single token pair. The pair is only ever written through
// SetTokens and Clear; callers must not cache and re-write stale pairs.
//
// A read with no stored pair returns the zero [Pair] and a nil error:
// absence is a state, not a failure.
type Store interface {
	SetTokens(ctx context.Context, pair Pair) error
	Tokens(ctx context.Context) (Pair, error)
	Clear(ctx context.Context) error
}
