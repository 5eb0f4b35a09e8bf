package goAuthClient

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	internalrefresh "github.com/MrEthical07/goAuthClient/internal/refresh"
	"github.com/MrEthical07/goAuthClient/internal/retry"
	"github.com/MrEthical07/goAuthClient/token"
)

// Builder defines a public type used by goAuthClient APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	httpClient *http.Client
	store      token.Store
	redis      redis.UniversalClient
	refreshFn  RefreshFunc
	loginFn    LoginFunc
	logoutFn   LogoutFunc
	auditSink  AuditSink
	warn       func(string, ...any)
	built      bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(fn func(*Config)) *Builder {
	if fn != nil {
		fn(&b.config)
	}
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithTokenStore describes the withtokenstore operation and its observable behavior.
//
// WithTokenStore may return an error when input validation, dependency calls, or security checks fail.
// WithTokenStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenStore(store token.Store) *Builder {
	b.store = store
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRefreshFunc describes the withrefreshfunc operation and its observable behavior.
//
// WithRefreshFunc may return an error when input validation, dependency calls, or security checks fail.
// WithRefreshFunc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRefreshFunc(fn RefreshFunc) *Builder {
	b.refreshFn = fn
	return b
}

// WithLoginFunc describes the withloginfunc operation and its observable behavior.
//
// WithLoginFunc may return an error when input validation, dependency calls, or security checks fail.
// WithLoginFunc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLoginFunc(fn LoginFunc) *Builder {
	b.loginFn = fn
	return b
}

// WithLogoutFunc describes the withlogoutfunc operation and its observable behavior.
//
// WithLogoutFunc may return an error when input validation, dependency calls, or security checks fail.
// WithLogoutFunc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogoutFunc(fn LogoutFunc) *Builder {
	b.logoutFn = fn
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(latencyHistograms bool) *Builder {
	b.config.Metrics.Enabled = true
	b.config.Metrics.EnableLatencyHistograms = latencyHistograms
	return b
}

// WithWarnLogger describes the withwarnlogger operation and its observable behavior.
//
// WithWarnLogger may return an error when input validation, dependency calls, or security checks fail.
// WithWarnLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithWarnLogger(fn func(format string, args ...any)) *Builder {
	b.warn = fn
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("Builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	warn := b.warn
	if warn == nil {
		warn = log.Printf
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}

	c := &Client{
		config:     cfg,
		httpClient: httpClient,
		logoutFn:   b.logoutFn,
		warn:       warn,
	}
	c.metrics = NewMetrics(cfg.Metrics)
	c.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	store, err := b.buildStore(c)
	if err != nil {
		return nil, err
	}
	c.store = store

	c.refreshFn = b.refreshFn
	if c.refreshFn == nil {
		c.refreshFn = NewEndpointRefreshFunc(httpClient, c.endpoint(cfg.API.RefreshPath))
	}
	c.loginFn = b.loginFn
	if c.loginFn == nil {
		c.loginFn = c.endpointLogin
	}

	c.policy = retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Multiplier:  cfg.Retry.Multiplier,
		MaxDelay:    cfg.Retry.MaxDelay,
	}

	c.coordinator = internalrefresh.New(internalrefresh.Deps{
		Refresh:     c.instrumentedRefresh,
		ReadTokens:  c.store.Tokens,
		WriteTokens: c.store.SetTokens,
		Logout:      c.forcedLogout,
		Cooldown:    cfg.Refresh.RedirectCooldown,
		NoSession:   ErrNoSession,
		Warn:        warn,
		OnCoalesced: func() {
			c.metricInc(MetricRefreshCoalesced)
		},
		OnShortCircuit: func() {
			c.metricInc(MetricRefreshShortCircuit)
		},
		OnSuppressed: func() {
			c.metricInc(MetricLogoutSuppressed)
		},
	})

	c.anonDeps = flows.RequestDeps{
		Send:            httpClient.Do,
		Decide:          c.policy.Decide,
		Sleep:           sleepCtx,
		NewRequestID:    uuid.NewString,
		RequestIDHeader: cfg.API.RequestIDHeader,
		Warn:            warn,
		OnRetry: func() {
			c.metricInc(MetricRequestRetry)
		},
	}

	c.authedDeps = c.anonDeps
	c.authedDeps.AccessToken = func(ctx context.Context) (string, error) {
		pair, err := c.store.Tokens(ctx)
		return pair.AccessToken, err
	}
	if cfg.Refresh.ProactiveRefresh {
		c.authedDeps.EnsureFresh = c.ensureFresh
	}
	c.authedDeps.RefreshOn401 = func(ctx context.Context) (string, error) {
		pair, err := c.coordinator.Refresh(ctx)
		return pair.AccessToken, err
	}
	c.authedDeps.OnUnauthorized = func() {
		c.metricInc(MetricRequestUnauthorized)
	}

	b.built = true
	return c, nil
}

// buildStore wires the storage tiers: injected store wins, then Redis over
// a local fallback, then the sealed or plaintext file, then memory.
func (b *Builder) buildStore(c *Client) (token.Store, error) {
	if b.store != nil {
		return b.store, nil
	}

	cfg := b.config.Storage
	fellBack := func(op string) {
		switch op {
		case "get":
			c.metricInc(MetricStorageFallbackRead)
		default:
			c.metricInc(MetricStorageFallbackWrite)
		}
		c.emitAuth("storage_fallback_"+op, true, nil)
	}

	if b.redis != nil {
		primary := token.NewRedisStore(b.redis, cfg.RedisPrefix, cfg.RedisTTL)
		var fallback token.Store = token.NewMemoryStore()
		if cfg.Path != "" {
			fallback = token.NewFileStore(cfg.Path)
		}
		tiered := token.NewTiered(primary, fallback, c.warn)
		tiered.OnFallback = fellBack
		return tiered, nil
	}

	if cfg.Path == "" {
		return token.NewMemoryStore(), nil
	}

	if cfg.Passphrase == "" {
		return token.NewFileStore(cfg.Path), nil
	}

	sealed, err := token.NewSealedFileStore(cfg.Path+".age", cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	tiered := token.NewTiered(sealed, token.NewFileStore(cfg.Path), c.warn)
	tiered.OnFallback = fellBack
	return tiered, nil
}

// instrumentedRefresh wraps the configured RefreshFunc with metrics and
// audit emission. It is the only path the coordinator calls.
func (c *Client) instrumentedRefresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	pair, err := c.refreshFn(ctx, refreshToken)
	if err != nil {
		c.metricInc(MetricRefreshFailure)
		c.emitAuth("refresh", false, err)
		return token.Pair{}, err
	}
	c.metricInc(MetricRefreshSuccess)
	c.emitAuth("refresh", true, nil)
	return pair, nil
}

// forcedLogout is the coordinator's logout side effect: clear whatever is
// persisted, then hand off to the application callback.
func (c *Client) forcedLogout() {
	c.metricInc(MetricLogoutTriggered)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.Clear(ctx); err != nil {
		c.warnf("logout: token store clear failed: %v", err)
	}
	c.emitAuth("logout_forced", true, nil)

	if c.logoutFn != nil {
		c.logoutFn()
	}
}
