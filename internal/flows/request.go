package flows

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RequestFailureKind classifies terminal pipeline failures for root-level
// error mapping. HTTP responses with non-2xx statuses are not failures at
// this level; they are returned to the caller as responses.
type RequestFailureKind int

const (
	RequestFailureNone RequestFailureKind = iota
	RequestFailureTransport
	RequestFailureAuthRefresh
)

// RequestResult carries either the final response or failure metadata.
type RequestResult struct {
	Failure   RequestFailureKind
	Err       error
	Response  *http.Response
	Attempts  int
	RequestID string
}

// RequestDeps captures request pipeline dependencies.
type RequestDeps struct {
	Send func(*http.Request) (*http.Response, error)

	// AccessToken reads the current access token; empty means send the
	// request unauthenticated. Store errors are warned, not surfaced.
	AccessToken func(ctx context.Context) (string, error)

	// EnsureFresh optionally exchanges a near-expiry access token for a
	// fresh one before the first send. May be nil.
	EnsureFresh func(ctx context.Context, accessToken string) (string, error)

	// RefreshOn401 runs the coordinated refresh and returns the new
	// access token. Nil disables the 401 path (login calls).
	RefreshOn401 func(ctx context.Context) (string, error)

	// Decide is the transient-retry policy: (err, status, attempt) to
	// (retry, backoff delay).
	Decide func(err error, status, attempt int) (bool, time.Duration)

	Sleep func(ctx context.Context, d time.Duration) error

	NewRequestID    func() string
	RequestIDHeader string

	Warn func(string, ...any)

	// Metric hooks; any may be nil.
	OnRetry        func()
	OnUnauthorized func()
}

// RunRequest executes one logical HTTP request: bearer attachment,
// transient retries with backoff, and at most one refresh-and-replay on a
// 401. Requests with a body are only retried or replayed when GetBody is
// set, since a consumed body cannot be resent.
func RunRequest(ctx context.Context, req *http.Request, deps RequestDeps) RequestResult {
	requestID := ""
	if deps.NewRequestID != nil && deps.RequestIDHeader != "" {
		requestID = deps.NewRequestID()
	}

	access := ""
	if deps.AccessToken != nil {
		tok, err := deps.AccessToken(ctx)
		if err != nil {
			warnf(deps, "request: access token read failed: %v", err)
		} else {
			access = tok
		}
	}

	if access != "" && deps.EnsureFresh != nil {
		tok, err := deps.EnsureFresh(ctx, access)
		if err != nil {
			// Proactive refresh is an optimization; the 401 path below
			// still covers a stale token.
			warnf(deps, "request: proactive refresh failed: %v", err)
		} else if tok != "" {
			access = tok
		}
	}

	replayable := req.Body == nil || req.GetBody != nil
	authRetried := false
	attempt := 0

	for {
		attemptReq, err := cloneRequest(ctx, req)
		if err != nil {
			return RequestResult{
				Failure:   RequestFailureTransport,
				Err:       err,
				Attempts:  attempt,
				RequestID: requestID,
			}
		}
		if access != "" {
			attemptReq.Header.Set("Authorization", "Bearer "+access)
		}
		if requestID != "" {
			attemptReq.Header.Set(deps.RequestIDHeader, requestID)
		}

		resp, err := deps.Send(attemptReq)
		if err != nil {
			retry, delay := deps.Decide(err, 0, attempt)
			if !retry || !replayable {
				return RequestResult{
					Failure:   RequestFailureTransport,
					Err:       err,
					Attempts:  attempt,
					RequestID: requestID,
				}
			}
			if sleepErr := deps.Sleep(ctx, delay); sleepErr != nil {
				return RequestResult{
					Failure:   RequestFailureTransport,
					Err:       sleepErr,
					Attempts:  attempt,
					RequestID: requestID,
				}
			}
			attempt++
			retried(deps)
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized &&
			!authRetried && replayable && deps.RefreshOn401 != nil {
			if deps.OnUnauthorized != nil {
				deps.OnUnauthorized()
			}
			discard(resp)

			newAccess, refreshErr := deps.RefreshOn401(ctx)
			if refreshErr != nil {
				return RequestResult{
					Failure:   RequestFailureAuthRefresh,
					Err:       refreshErr,
					Attempts:  attempt,
					RequestID: requestID,
				}
			}
			access = newAccess
			authRetried = true
			continue
		}

		if retry, delay := deps.Decide(nil, resp.StatusCode, attempt); retry && replayable {
			discard(resp)
			if sleepErr := deps.Sleep(ctx, delay); sleepErr != nil {
				return RequestResult{
					Failure:   RequestFailureTransport,
					Err:       sleepErr,
					Attempts:  attempt,
					RequestID: requestID,
				}
			}
			attempt++
			retried(deps)
			continue
		}

		return RequestResult{
			Response:  resp,
			Attempts:  attempt,
			RequestID: requestID,
		}
	}
}

// cloneRequest produces a sendable copy with a fresh body when the
// original can supply one.
func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	out := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	return out, nil
}

// discard drains and closes a response body that will not be returned,
// so the underlying connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func retried(deps RequestDeps) {
	if deps.OnRetry != nil {
		deps.OnRetry()
	}
}

func warnf(deps RequestDeps, format string, args ...any) {
	if deps.Warn != nil {
		deps.Warn(format, args...)
	}
}
