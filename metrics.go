package goAuthClient

import (
	internalmetrics "github.com/MrEthical07/goAuthClient/internal/metrics"
)

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricRequestSuccess is an exported constant or variable used by the API client.
	MetricRequestSuccess = MetricID(internalmetrics.MetricRequestSuccess)
	// MetricRequestFailure is an exported constant or variable used by the API client.
	MetricRequestFailure = MetricID(internalmetrics.MetricRequestFailure)
	// MetricRequestRetry is an exported constant or variable used by the API client.
	MetricRequestRetry = MetricID(internalmetrics.MetricRequestRetry)
	// MetricRequestUnauthorized is an exported constant or variable used by the API client.
	MetricRequestUnauthorized = MetricID(internalmetrics.MetricRequestUnauthorized)
	// MetricRefreshSuccess is an exported constant or variable used by the API client.
	MetricRefreshSuccess = MetricID(internalmetrics.MetricRefreshSuccess)
	// MetricRefreshFailure is an exported constant or variable used by the API client.
	MetricRefreshFailure = MetricID(internalmetrics.MetricRefreshFailure)
	// MetricRefreshCoalesced is an exported constant or variable used by the API client.
	MetricRefreshCoalesced = MetricID(internalmetrics.MetricRefreshCoalesced)
	// MetricRefreshShortCircuit is an exported constant or variable used by the API client.
	MetricRefreshShortCircuit = MetricID(internalmetrics.MetricRefreshShortCircuit)
	// MetricLoginSuccess is an exported constant or variable used by the API client.
	MetricLoginSuccess = MetricID(internalmetrics.MetricLoginSuccess)
	// MetricLoginFailure is an exported constant or variable used by the API client.
	MetricLoginFailure = MetricID(internalmetrics.MetricLoginFailure)
	// MetricLogoutTriggered is an exported constant or variable used by the API client.
	MetricLogoutTriggered = MetricID(internalmetrics.MetricLogoutTriggered)
	// MetricLogoutSuppressed is an exported constant or variable used by the API client.
	MetricLogoutSuppressed = MetricID(internalmetrics.MetricLogoutSuppressed)
	// MetricStorageFallbackRead is an exported constant or variable used by the API client.
	MetricStorageFallbackRead = MetricID(internalmetrics.MetricStorageFallbackRead)
	// MetricStorageFallbackWrite is an exported constant or variable used by the API client.
	MetricStorageFallbackWrite = MetricID(internalmetrics.MetricStorageFallbackWrite)
	// MetricRequestLatency is an exported constant or variable used by the API client.
	MetricRequestLatency = MetricID(internalmetrics.MetricRequestLatency)
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
