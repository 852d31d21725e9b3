// Package metrics exposes the resilience counters on the Prometheus
// default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetryAttempts counts transient-failure retries of remote store
	// operations.
	RetryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dorm_store_retry_attempts_total",
		Help: "Number of retried remote store operations.",
	})

	// RemoteFailures counts remote store operations that failed after
	// the retry schedule was exhausted.
	RemoteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dorm_store_remote_failures_total",
		Help: "Number of remote store operations that failed permanently.",
	})

	// FallbackActivations counts operations that were re-issued
	// against the local cache.
	FallbackActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dorm_store_fallback_activations_total",
		Help: "Number of operations served by the local fallback cache.",
	})
)
