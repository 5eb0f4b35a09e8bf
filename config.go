package goAuthClient

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by goAuthClient APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API     APIConfig
	Retry   RetryConfig
	Refresh RefreshConfig
	Storage StorageConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by goAuthClient APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	LoginPath      string
	RefreshPath    string

	// RequestIDHeader carries a per-logical-request ID across retries and
	// the auth replay. Empty disables the header.
	RequestIDHeader string
}

/*
====================================
RETRY CONFIG
====================================
*/

// RetryConfig defines a public type used by goAuthClient APIs.
//
// RetryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by goAuthClient APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	// RedirectCooldown is the minimum interval between forced-logout side
	// effects. A thundering herd of 401s fires the effect once.
	RedirectCooldown time.Duration

	// ProactiveRefresh renews the access token before sending when its
	// JWT exp claim is within ExpiryLeeway.
	ProactiveRefresh bool
	ExpiryLeeway     time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig defines a public type used by goAuthClient APIs.
//
// StorageConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StorageConfig struct {
	// Path is the token file location. Empty keeps tokens in memory only.
	Path string

	// Passphrase enables the age-sealed primary tier over the plaintext
	// fallback file. Empty means plaintext only; there is no derived-key
	// fallback.
	Passphrase string

	RedisPrefix string
	RedisTTL    time.Duration
}

// AuditConfig defines a public type used by goAuthClient APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goAuthClient APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout:  15 * time.Second,
			LoginPath:       "/auth/login",
			RefreshPath:     "/auth/refresh",
			RequestIDHeader: "X-Request-ID",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   250 * time.Millisecond,
			Multiplier:  2,
			MaxDelay:    5 * time.Second,
		},
		Refresh: RefreshConfig{
			RedirectCooldown: 5 * time.Second,
			ProactiveRefresh: true,
			ExpiryLeeway:     30 * time.Second,
		},
		Storage: StorageConfig{
			RedisPrefix: "gac",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.New("API BaseURL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("API BaseURL must include a host")
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("API RequestTimeout must be > 0")
	}

	// Retry
	if c.Retry.MaxAttempts < 1 {
		return errors.New("Retry MaxAttempts must be >= 1")
	}
	if c.Retry.BaseDelay < 0 {
		return errors.New("Retry BaseDelay must be >= 0")
	}
	if c.Retry.Multiplier < 1 {
		return errors.New("Retry Multiplier must be >= 1")
	}
	if c.Retry.MaxDelay > 0 && c.Retry.MaxDelay < c.Retry.BaseDelay {
		return errors.New("Retry MaxDelay must be >= BaseDelay")
	}

	// Refresh
	if c.Refresh.RedirectCooldown < 0 {
		return errors.New("Refresh RedirectCooldown must be >= 0")
	}
	if c.Refresh.ProactiveRefresh && c.Refresh.ExpiryLeeway <= 0 {
		return errors.New("Refresh ExpiryLeeway must be > 0 when ProactiveRefresh is enabled")
	}

	// Storage
	if c.Storage.Passphrase != "" && c.Storage.Path == "" {
		return errors.New("Storage Passphrase requires a Path")
	}
	if c.Storage.RedisTTL < 0 {
		return errors.New("Storage RedisTTL must be >= 0")
	}

	return nil
}
