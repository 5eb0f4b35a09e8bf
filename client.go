package goAuthClient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	internalrefresh "github.com/MrEthical07/goAuthClient/internal/refresh"
	"github.com/MrEthical07/goAuthClient/internal/retry"
	"github.com/MrEthical07/goAuthClient/token"
)

// Client defines a public type used by goAuthClient APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config      Config
	httpClient  *http.Client
	store       token.Store
	coordinator *internalrefresh.Coordinator
	policy      retry.Policy
	metrics     *Metrics
	audit       *internalaudit.Dispatcher
	refreshFn   RefreshFunc
	loginFn     LoginFunc
	logoutFn    LogoutFunc
	warn        func(string, ...any)

	authedDeps flows.RequestDeps
	anonDeps   flows.RequestDeps
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// Do executes one logical HTTP request through the full pipeline: bearer
// attachment, transient retries, and at most one coordinated
// refresh-and-replay on a 401.
//
// Responses with non-2xx statuses are returned to the caller unchanged, as
// net/http does. Do returns an error only for the three terminal failure
// classes: transport failure (after retries), retry budget exhausted on
// network errors, and auth refresh failure ([ErrNoSession] or
// [ErrSessionTerminated]).
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	start := time.Now()
	result := flows.RunRequest(ctx, req, c.authedDeps)
	if c.metrics != nil {
		c.metrics.Observe(MetricRequestLatency, time.Since(start))
	}
	if result.Attempts > 0 {
		c.emitRequest("request_retry", req, result)
	}

	return c.mapResult(result)
}

func (c *Client) mapResult(result flows.RequestResult) (*http.Response, error) {
	switch result.Failure {
	case flows.RequestFailureNone:
		if result.Response.StatusCode >= 200 && result.Response.StatusCode < 300 {
			c.metricInc(MetricRequestSuccess)
		} else {
			c.metricInc(MetricRequestFailure)
		}
		return result.Response, nil

	case flows.RequestFailureAuthRefresh:
		c.metricInc(MetricRequestFailure)
		if errors.Is(result.Err, ErrNoSession) || isContextErr(result.Err) {
			return nil, result.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionTerminated, result.Err)

	default:
		c.metricInc(MetricRequestFailure)
		if isContextErr(result.Err) {
			return nil, result.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, result.Err)
	}
}

// Get issues a GET against a path relative to the configured base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// PostJSON issues a POST with a JSON body against a path relative to the
// configured base URL. The body is replayable across retries.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Refresh forces a coordinated token refresh. Concurrent callers share a
// single backend call.
func (c *Client) Refresh(ctx context.Context) (token.Pair, error) {
	if c == nil {
		return token.Pair{}, ErrClientNotReady
	}
	return c.coordinator.Refresh(ctx)
}

// Logout tears the session down: it waits out any in-flight refresh so a
// late completion cannot resurrect cleared tokens, clears the store, and
// fires the logout side effect.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	if err := c.coordinator.Quiesce(ctx); err != nil {
		return err
	}
	c.coordinator.NoteLogout()

	err := c.store.Clear(ctx)
	c.emitAuth("logout", err == nil, err)

	if c.logoutFn != nil {
		c.logoutFn()
	}
	return err
}

// SetSession installs an externally obtained token pair (for callers that
// run their own login flow).
func (c *Client) SetSession(ctx context.Context, pair token.Pair) error {
	if c == nil {
		return ErrClientNotReady
	}
	if !pair.HasTokens() {
		return ErrInvalidTokenPayload
	}
	return c.store.SetTokens(ctx, pair)
}

// HasTokens reports whether a refresh token is stored. Storage errors are
// warned and treated as no tokens.
func (c *Client) HasTokens(ctx context.Context) bool {
	pair := c.storedPair(ctx)
	return pair.HasTokens()
}

// HasValidSession reports whether both access and refresh tokens are
// stored.
func (c *Client) HasValidSession(ctx context.Context) bool {
	pair := c.storedPair(ctx)
	return pair.Valid()
}

func (c *Client) storedPair(ctx context.Context) token.Pair {
	if c == nil {
		return token.Pair{}
	}
	pair, err := c.store.Tokens(ctx)
	if err != nil {
		c.warnf("client: token store read failed: %v", err)
		return token.Pair{}
	}
	return pair
}

func (c *Client) endpoint(path string) string {
	base := strings.TrimRight(c.config.API.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func (c *Client) warnf(format string, args ...any) {
	if c != nil && c.warn != nil {
		c.warn(format, args...)
	}
}

func (c *Client) emitAuth(eventType string, success bool, err error) {
	if c == nil || c.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	c.audit.Emit(context.Background(), event)
}

func (c *Client) emitRequest(eventType string, req *http.Request, result flows.RequestResult) {
	if c == nil || c.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		RequestID: result.RequestID,
		Method:    req.Method,
		Path:      req.URL.Path,
		Attempt:   result.Attempts,
		Success:   result.Failure == flows.RequestFailureNone,
	}
	if result.Response != nil {
		event.Status = result.Response.StatusCode
	}
	if result.Err != nil {
		event.Error = result.Err.Error()
	}
	c.audit.Emit(context.Background(), event)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
