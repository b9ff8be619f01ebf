// Package observability holds the Prometheus metrics for the offline core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the offline core. Each Collector
// owns its registry so tests can construct isolated instances without
// duplicate-registration panics.
type Collector struct {
	registry *prometheus.Registry

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Offline queue metrics
	QueueDepth  prometheus.Gauge
	OpsEnqueued prometheus.Counter
	OpsSynced   prometheus.Counter
	OpsDropped  prometheus.Counter

	// Feed metrics
	FeedTierFill *prometheus.CounterVec

	// Identity metrics
	IdentityFallbacks prometheus.Counter

	// Remote store metrics
	RemoteFailures *prometheus.CounterVec
}

// NewCollector creates a metrics collector with the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of local cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of local cache misses",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "offline_queue_depth",
			Help:      "Current number of pending offline operations",
		}),
		OpsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_ops_enqueued_total",
			Help:      "Total number of operations captured while offline",
		}),
		OpsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_ops_synced_total",
			Help:      "Total number of queued operations replayed successfully",
		}),
		OpsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_ops_dropped_total",
			Help:      "Total number of queued operations dropped after the retry cap",
		}),
		FeedTierFill: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_tier_items_total",
			Help:      "Feed items served, labeled by geographic tier",
		}, []string{"tier"}),
		IdentityFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_fallbacks_total",
			Help:      "Total number of fallback identifiers handed out",
		}),
		RemoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_failures_total",
			Help:      "Remote store call failures, labeled by operation",
		}, []string{"operation"}),
	}

	registry.MustRegister(
		c.CacheHits,
		c.CacheMisses,
		c.QueueDepth,
		c.OpsEnqueued,
		c.OpsSynced,
		c.OpsDropped,
		c.FeedTierFill,
		c.IdentityFallbacks,
		c.RemoteFailures,
	)

	return c
}

// Registry exposes the collector's registry for scraping or test assertions.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
