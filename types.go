package goAuthClient

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/token"
)

// RefreshFunc exchanges a refresh token for a new token pair. Implement it
// against your backend, or use [NewEndpointRefreshFunc] /
// [NewOAuth2RefreshFunc]. Any error is treated as refresh failure and
// terminates the session.
type RefreshFunc func(ctx context.Context, refreshToken string) (token.Pair, error)

// LoginFunc exchanges credentials for a token pair. The built-in
// implementation POSTs JSON to [APIConfig].LoginPath.
type LoginFunc func(ctx context.Context, identifier, password string) (token.Pair, error)

// LogoutFunc is the session-teardown side effect: clear caches, notify the
// UI, navigate to a login destination. The client clears the token store
// itself before invoking it.
type LogoutFunc func()

// Credentials is the input for [Client.Login].
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
