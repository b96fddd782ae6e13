// Package observability exposes application metrics for the local
// facade's /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics handles application metrics and monitoring.
type Metrics struct {
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	CacheDecodeFailures prometheus.Counter
	RemoteFetches       *prometheus.CounterVec
	BackgroundSyncs     *prometheus.CounterVec
	OfflineWrites       prometheus.Counter
	PendingFlushes      *prometheus.CounterVec
}

// NewMetrics registers the application metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "hydrosnap_profile_cache_hits_total",
			Help: "Profile reads served from the device cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "hydrosnap_profile_cache_misses_total",
			Help: "Profile reads that fell through to the remote store.",
		}),
		CacheDecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hydrosnap_profile_cache_decode_failures_total",
			Help: "Cache entries that failed to decode and were treated as misses.",
		}),
		RemoteFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hydrosnap_remote_fetches_total",
			Help: "Cold-path remote fetches by result.",
		}, []string{"result"}),
		BackgroundSyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hydrosnap_background_syncs_total",
			Help: "Background cache refreshes by result.",
		}, []string{"result"}),
		OfflineWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "hydrosnap_offline_writes_total",
			Help: "Profile updates queued locally because the remote write failed.",
		}),
		PendingFlushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hydrosnap_pending_flushes_total",
			Help: "Pending-update reconciliation attempts by result.",
		}, []string{"result"}),
	}
}

// NewTestMetrics returns metrics bound to a throwaway registry.
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
