// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheOpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sqlite_mcp_cache_open_connections",
		Help: "Number of database handles currently held by the connection cache",
	})

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_mcp_cache_lookups_total",
		Help: "Connection cache lookups by result",
	}, []string{"result"}) // result=hit|miss|error

	cacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_mcp_cache_evictions_total",
		Help: "Handles closed by the connection cache by reason",
	}, []string{"reason"}) // reason=idle|capacity|release|shutdown

	cacheOpenDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sqlite_mcp_cache_open_duration_seconds",
		Help:    "Time spent opening a new database handle",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})
)

// Cache lookup results.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Eviction reasons.
const (
	EvictIdle     = "idle"
	EvictCapacity = "capacity"
	EvictRelease  = "release"
	EvictShutdown = "shutdown"
)

// SetOpenConnections records the current cache size.
func SetOpenConnections(n int) {
	cacheOpenConnections.Set(float64(n))
}

// RecordCacheLookup counts one acquire by result.
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordEviction counts one closed handle by reason.
func RecordEviction(reason string) {
	cacheEvictionsTotal.WithLabelValues(reason).Inc()
}

// ObserveOpen records how long opening a handle took.
func ObserveOpen(seconds float64) {
	cacheOpenDuration.Observe(seconds)
}
