package flows

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/retry"
)

func response(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func testDeps(send func(*http.Request) (*http.Response, error)) RequestDeps {
	policy := retry.Policy{MaxAttempts: 3, Multiplier: 1}
	return RequestDeps{
		Send: send,
		AccessToken: func(context.Context) (string, error) {
			return "access-1", nil
		},
		Decide: policy.Decide,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			return ctx.Err()
		},
		NewRequestID:    func() string { return "req-1" },
		RequestIDHeader: "X-Request-ID",
	}
}

func TestRunRequestAttachesBearerAndRequestID(t *testing.T) {
	var got *http.Request
	deps := testDeps(func(req *http.Request) (*http.Response, error) {
		got = req
		return response(200), nil
	})

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/v1/me", nil)
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureNone || result.Response.StatusCode != 200 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if auth := got.Header.Get("Authorization"); auth != "Bearer access-1" {
		t.Fatalf("bearer header = %q", auth)
	}
	if id := got.Header.Get("X-Request-ID"); id != "req-1" {
		t.Fatalf("request id header = %q", id)
	}
	if result.RequestID != "req-1" {
		t.Fatalf("result request id = %q", result.RequestID)
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatalf("original request must not be mutated")
	}
}

func TestRunRequestRetries503UntilBudget(t *testing.T) {
	sends := 0
	retries := 0
	deps := testDeps(func(*http.Request) (*http.Response, error) {
		sends++
		return response(503), nil
	})
	deps.OnRetry = func() { retries++ }

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/v1/me", nil)
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureNone {
		t.Fatalf("exhausted retries on a response must return the response, got %+v", result)
	}
	if result.Response.StatusCode != 503 {
		t.Fatalf("final status = %d", result.Response.StatusCode)
	}
	if sends != 3 {
		t.Fatalf("expected 3 sends for a 3-attempt budget, got %d", sends)
	}
	if retries != 2 || result.Attempts != 2 {
		t.Fatalf("expected 2 retries, got hook=%d result=%d", retries, result.Attempts)
	}
}

func TestRunRequestNetworkErrorExhaustsBudget(t *testing.T) {
	sends := 0
	netErr := errors.New("dial tcp: connection refused")
	deps := testDeps(func(*http.Request) (*http.Response, error) {
		sends++
		return nil, netErr
	})

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/v1/me", nil)
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureTransport || !errors.Is(result.Err, netErr) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if sends != 3 {
		t.Fatalf("expected 3 sends, got %d", sends)
	}
}

func TestRunRequestRefreshOn401Once(t *testing.T) {
	var tokensSeen []string
	unauthorized := 0
	deps := testDeps(func(req *http.Request) (*http.Response, error) {
		tok := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
		tokensSeen = append(tokensSeen, tok)
		if tok != "access-2" {
			return response(401), nil
		}
		return response(200), nil
	})
	deps.RefreshOn401 = func(context.Context) (string, error) {
		return "access-2", nil
	}
	deps.OnUnauthorized = func() { unauthorized++ }

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/v1/me", nil)
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureNone || result.Response.StatusCode != 200 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(tokensSeen) != 2 || tokensSeen[0] != "access-1" || tokensSeen[1] != "access-2" {
		t.Fatalf("token sequence = %v", tokensSeen)
	}
	if unauthorized != 1 {
		t.Fatalf("expected one unauthorized hook call, got %d", unauthorized)
	}
}

func TestRunRequestSecond401IsReturned(t *testing.T) {
	refreshes := 0
	deps := testDeps(func(*http.Request) (*http.Response, error) {
		return response(401), nil
	})
	deps.RefreshOn401 = func(context.Context) (string, error) {
		refreshes++
		return "access-2", nil
	}

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/v1/me", nil)
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureNone || result.Response.StatusCode != 401 {
		t.Fatalf("a 401 after the replay must be returned, got %+v", result)
	}
	if refreshes != 1 {
		t.Fatalf("expected exactly one refresh, got %d", refreshes)
	}
}

func TestRunRequestRefreshFailureIsTerminal(t *testing.T) {
	refreshErr := errors.New("no session")
	deps := testDeps(func(*http.Request) (*http.Response, error) {
		return response(401), nil
	})
	deps.RefreshOn401 = func(context.Context) (string, error) {
		return "", refreshErr
	}

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/v1/me", nil)
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureAuthRefresh || !errors.Is(result.Err, refreshErr) {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunRequestConsumedBodyIsNeverReplayed(t *testing.T) {
	sends := 0
	deps := testDeps(func(*http.Request) (*http.Response, error) {
		sends++
		return response(503), nil
	})

	// A plain reader gives net/http no GetBody, so the body cannot be resent.
	body := io.NopCloser(strings.NewReader("payload"))
	req, _ := http.NewRequest(http.MethodPost, "http://api.test/v1/items", struct{ io.Reader }{body})
	if req.GetBody != nil {
		t.Fatalf("test setup: GetBody unexpectedly present")
	}

	result := RunRequest(context.Background(), req, deps)
	if sends != 1 {
		t.Fatalf("non-replayable body must be sent once, got %d sends", sends)
	}
	if result.Response.StatusCode != 503 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunRequestReplaysBufferedBody(t *testing.T) {
	var bodies []string
	deps := testDeps(func(req *http.Request) (*http.Response, error) {
		data, _ := io.ReadAll(req.Body)
		bodies = append(bodies, string(data))
		if len(bodies) < 2 {
			return response(503), nil
		}
		return response(200), nil
	})

	req, _ := http.NewRequest(http.MethodPost, "http://api.test/v1/items", bytes.NewReader([]byte("payload")))
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureNone || result.Response.StatusCode != 200 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(bodies) != 2 || bodies[0] != "payload" || bodies[1] != "payload" {
		t.Fatalf("body not replayed intact: %v", bodies)
	}
}

func TestRunRequestAnonymousWithoutTokenSource(t *testing.T) {
	var got *http.Request
	deps := testDeps(func(req *http.Request) (*http.Response, error) {
		got = req
		return response(200), nil
	})
	deps.AccessToken = nil
	deps.RefreshOn401 = nil

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/auth/login", nil)
	result := RunRequest(context.Background(), req, deps)

	if result.Failure != RequestFailureNone {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got.Header.Get("Authorization") != "" {
		t.Fatalf("anonymous request must not carry a bearer token")
	}
}
