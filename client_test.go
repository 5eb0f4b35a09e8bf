package goAuthClient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/token"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...func(*Builder)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := New().
		WithConfig(func(cfg *Config) {
			cfg.API.BaseURL = srv.URL
			cfg.Retry.BaseDelay = time.Millisecond
			cfg.Retry.MaxDelay = 5 * time.Millisecond
		}).
		WithMetricsEnabled(false)
	for _, opt := range opts {
		opt(b)
	}

	c, err := b.Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func seedSession(t *testing.T, c *Client, access, refresh string) {
	t.Helper()
	err := c.SetSession(context.Background(), token.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func writeTokenJSON(w http.ResponseWriter, access, refresh string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"expiresIn":    3600,
	})
}

func TestLoginStoresSessionTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("login method = %s", r.Method)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must be anonymous, got %q", r.Header.Get("Authorization"))
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds.Identifier != "user@test" || creds.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeTokenJSON(w, "access-1", "refresh-1")
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	if c.HasTokens(ctx) {
		t.Fatalf("fresh client must have no tokens")
	}
	if err := c.Login(ctx, "user@test", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !c.HasValidSession(ctx) {
		t.Fatalf("expected valid session after login")
	}

	pair, err := c.store.Tokens(ctx)
	if err != nil || pair.AccessToken != "access-1" || pair.RefreshToken != "refresh-1" {
		t.Fatalf("stored pair = %+v err %v", pair, err)
	}
	if c.MetricsSnapshot().Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("login success metric not recorded")
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	err := c.Login(ctx, "user@test", "wrong")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
	if c.HasTokens(ctx) {
		t.Fatalf("failed login must not store tokens")
	}
	if c.MetricsSnapshot().Counters[MetricLoginFailure] != 1 {
		t.Fatalf("login failure metric not recorded")
	}
}

func TestDoAttachesBearerToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("request id header missing")
		}
		w.WriteHeader(http.StatusOK)
	})

	c := newTestClient(t, mux)
	seedSession(t, c, "access-1", "refresh-1")

	resp, err := c.Get(context.Background(), "/v1/me")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestDoRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	c := newTestClient(t, mux)
	seedSession(t, c, "access-1", "refresh-1")

	resp, err := c.Get(context.Background(), "/v1/me")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 sends, got %d", hits.Load())
	}
	if c.MetricsSnapshot().Counters[MetricRequestRetry] != 2 {
		t.Fatalf("retry metric = %d", c.MetricsSnapshot().Counters[MetricRequestRetry])
	}
}

func TestDoRetryBudgetReturnsLastResponse(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := newTestClient(t, mux)
	seedSession(t, c, "access-1", "refresh-1")

	resp, err := c.Get(context.Background(), "/v1/me")
	if err != nil {
		t.Fatalf("an HTTP response is not an error, got %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected the full 3-attempt budget, got %d sends", hits.Load())
	}
}

func TestDoRefreshAndReplayOn401(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeTokenJSON(w, "access-2", "refresh-2")
	})

	c := newTestClient(t, mux)
	seedSession(t, c, "access-1", "refresh-1")
	ctx := context.Background()

	resp, err := c.Get(ctx, "/v1/me")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if refreshCalls.Load() != 1 {
		t.Fatalf("refresh calls = %d", refreshCalls.Load())
	}

	pair, _ := c.store.Tokens(ctx)
	if pair.AccessToken != "access-2" || pair.RefreshToken != "refresh-2" {
		t.Fatalf("rotated pair not persisted: %+v", pair)
	}

	counters := c.MetricsSnapshot().Counters
	if counters[MetricRequestUnauthorized] != 1 || counters[MetricRefreshSuccess] != 1 {
		t.Fatalf("unexpected counters: %v", counters)
	}
}

func TestDoWithoutSessionFails(t *testing.T) {
	var logouts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, mux, func(b *Builder) {
		b.WithLogoutFunc(func() { logouts.Add(1) })
	})

	_, err := c.Get(context.Background(), "/v1/me")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if logouts.Load() != 1 {
		t.Fatalf("expected forced logout, got %d", logouts.Load())
	}
	if c.MetricsSnapshot().Counters[MetricRefreshShortCircuit] != 1 {
		t.Fatalf("short-circuit metric not recorded")
	}
}

func TestDoSessionTerminatedWhenRefreshRejected(t *testing.T) {
	var logouts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, mux, func(b *Builder) {
		b.WithLogoutFunc(func() { logouts.Add(1) })
	})
	seedSession(t, c, "access-1", "refresh-1")
	ctx := context.Background()

	_, err := c.Get(ctx, "/v1/me")
	if !errors.Is(err, ErrSessionTerminated) {
		t.Fatalf("expected ErrSessionTerminated, got %v", err)
	}
	if logouts.Load() != 1 {
		t.Fatalf("expected forced logout, got %d", logouts.Load())
	}
	if c.HasTokens(ctx) {
		t.Fatalf("forced logout must clear the token store")
	}
	if c.MetricsSnapshot().Counters[MetricRefreshFailure] != 1 {
		t.Fatalf("refresh failure metric not recorded")
	}
}

func TestForcedLogoutCooldownCollapsesBursts(t *testing.T) {
	var logouts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, mux, func(b *Builder) {
		b.WithLogoutFunc(func() { logouts.Add(1) })
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, "/v1/me"); !errors.Is(err, ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
	}
	if logouts.Load() != 1 {
		t.Fatalf("cooldown must collapse the burst to one logout, got %d", logouts.Load())
	}
	if c.MetricsSnapshot().Counters[MetricLogoutSuppressed] != 2 {
		t.Fatalf("suppressed metric = %d", c.MetricsSnapshot().Counters[MetricLogoutSuppressed])
	}
}

func TestLogoutClearsSessionAndIsIdempotent(t *testing.T) {
	var logouts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, mux, func(b *Builder) {
		b.WithLogoutFunc(func() { logouts.Add(1) })
	})
	seedSession(t, c, "access-1", "refresh-1")
	ctx := context.Background()

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("second logout must be a no-op, got %v", err)
	}
	if c.HasTokens(ctx) {
		t.Fatalf("tokens survived logout")
	}

	// A trailing 401 burst right after a user logout must not fire the
	// forced-logout side effect again inside the cooldown.
	before := logouts.Load()
	_, _ = c.Get(ctx, "/v1/me")
	if logouts.Load() != before {
		t.Fatalf("forced logout fired inside user-logout cooldown")
	}
}

func TestDoCountsOnly2xxAsSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/cached", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	})
	mux.HandleFunc("/v1/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := newTestClient(t, mux)
	seedSession(t, c, "access-1", "refresh-1")
	ctx := context.Background()

	for _, path := range []string{"/v1/ok", "/v1/cached", "/v1/missing"} {
		resp, err := c.Get(ctx, path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
	}

	counters := c.MetricsSnapshot().Counters
	if counters[MetricRequestSuccess] != 1 {
		t.Fatalf("success counter = %d, want 1 (only the 204)", counters[MetricRequestSuccess])
	}
	if counters[MetricRequestFailure] != 2 {
		t.Fatalf("failure counter = %d, want 2 (the 304 and the 404)", counters[MetricRequestFailure])
	}
}

func TestSetSessionRejectsUnusablePair(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())

	err := c.SetSession(context.Background(), token.Pair{AccessToken: "a"})
	if !errors.Is(err, ErrInvalidTokenPayload) {
		t.Fatalf("expected ErrInvalidTokenPayload, got %v", err)
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithConfig(func(cfg *Config) {
		cfg.API.BaseURL = "http://localhost:9"
	})
	c, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	c.Close()

	if _, err := b.Build(); err == nil {
		t.Fatalf("second build must fail")
	}
}

func TestBuilderStoreWiring(t *testing.T) {
	build := func(t *testing.T, mutate func(*Config)) *Client {
		t.Helper()
		c, err := New().WithConfig(func(cfg *Config) {
			cfg.API.BaseURL = "http://localhost:9"
			mutate(cfg)
		}).Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		t.Cleanup(c.Close)
		return c
	}

	c := build(t, func(*Config) {})
	if _, ok := c.store.(*token.MemoryStore); !ok {
		t.Fatalf("default store = %T, want memory", c.store)
	}

	c = build(t, func(cfg *Config) {
		cfg.Storage.Path = t.TempDir() + "/tokens.json"
	})
	if _, ok := c.store.(*token.FileStore); !ok {
		t.Fatalf("path-only store = %T, want file", c.store)
	}

	c = build(t, func(cfg *Config) {
		cfg.Storage.Path = t.TempDir() + "/tokens.json"
		cfg.Storage.Passphrase = "correct horse"
	})
	if _, ok := c.store.(*token.Tiered); !ok {
		t.Fatalf("sealed store = %T, want tiered", c.store)
	}
}

func TestDecodeTokenPayloadFieldStyles(t *testing.T) {
	camel := []byte(`{"accessToken":"a1","refreshToken":"r1","expiresIn":3600}`)
	pair, err := decodeTokenPayload(camel)
	if err != nil {
		t.Fatalf("camelCase payload: %v", err)
	}
	if pair.AccessToken != "a1" || pair.RefreshToken != "r1" {
		t.Fatalf("camelCase pair = %+v", pair)
	}
	if until := time.Until(pair.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Fatalf("expiry not derived from expiresIn: %v", pair.ExpiresAt)
	}

	snake := []byte(`{"access_token":"a2","refresh_token":"r2","expires_in":60}`)
	pair, err = decodeTokenPayload(snake)
	if err != nil {
		t.Fatalf("snake_case payload: %v", err)
	}
	if pair.AccessToken != "a2" || pair.RefreshToken != "r2" {
		t.Fatalf("snake_case pair = %+v", pair)
	}

	if _, err := decodeTokenPayload([]byte(`{"refreshToken":"r"}`)); !errors.Is(err, ErrInvalidTokenPayload) {
		t.Fatalf("missing access token must be rejected, got %v", err)
	}
	if _, err := decodeTokenPayload([]byte(`not-json`)); !errors.Is(err, ErrInvalidTokenPayload) {
		t.Fatalf("malformed payload must be rejected, got %v", err)
	}

	// Access token only: fixed-rotation servers omit the refresh token.
	pair, err = decodeTokenPayload([]byte(`{"accessToken":"a3"}`))
	if err != nil || pair.RefreshToken != "" {
		t.Fatalf("access-only payload = %+v err %v", pair, err)
	}
}

func TestNilClientGuards(t *testing.T) {
	var c *Client
	ctx := context.Background()

	if _, err := c.Do(ctx, nil); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("Do on nil client = %v", err)
	}
	if err := c.Login(ctx, "u", "p"); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("Login on nil client = %v", err)
	}
	if err := c.Logout(ctx); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("Logout on nil client = %v", err)
	}
	if c.HasTokens(ctx) || c.HasValidSession(ctx) {
		t.Fatalf("nil client reported a session")
	}
	c.Close()
}
