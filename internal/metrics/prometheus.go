// Package metrics exposes catalogue engine counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps the Prometheus collectors used by the engine.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	cacheInvalidated *prometheus.CounterVec
	cacheExpired     *prometheus.CounterVec

	indexBuilds        *prometheus.CounterVec
	indexBuildDuration prometheus.Histogram
	indexSize          prometheus.Gauge

	searchDuration *prometheus.HistogramVec
}

// Histogram buckets in milliseconds
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,

		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache lookups that found a live entry",
			},
			[]string{"cache"},
		),

		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache lookups that found nothing",
			},
			[]string{"cache"},
		),

		cacheInvalidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidated_total",
				Help:      "Total number of cache entries removed by invalidation",
			},
			[]string{"cache"},
		),

		cacheExpired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_expired_total",
				Help:      "Total number of cache entries removed after their TTL",
			},
			[]string{"cache"},
		),

		indexBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_index_builds_total",
				Help:      "Total number of search index rebuilds",
			},
			[]string{"status"},
		),

		indexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_index_build_duration_ms",
				Help:      "Search index rebuild duration in milliseconds",
				Buckets:   defaultBuckets,
			},
		),

		indexSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "search_index_items",
				Help:      "Number of items in the most recently built search index",
			},
		),

		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_ms",
				Help:      "Catalogue query duration in milliseconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.cacheHits,
		m.cacheMisses,
		m.cacheInvalidated,
		m.cacheExpired,
		m.indexBuilds,
		m.indexBuildDuration,
		m.indexSize,
		m.searchDuration,
	)

	return m
}

// CacheHit records a cache hit.
func (m *Metrics) CacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// CacheMiss records a cache miss.
func (m *Metrics) CacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// CacheInvalidated records explicitly removed entries.
func (m *Metrics) CacheInvalidated(cache string, count int) {
	m.cacheInvalidated.WithLabelValues(cache).Add(float64(count))
}

// CacheExpired records entries dropped after their TTL.
func (m *Metrics) CacheExpired(cache string, count int) {
	m.cacheExpired.WithLabelValues(cache).Add(float64(count))
}

// IndexBuilt records a search index rebuild.
func (m *Metrics) IndexBuilt(d time.Duration, items int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.indexSize.Set(float64(items))
	}
	m.indexBuilds.WithLabelValues(status).Inc()
	m.indexBuildDuration.Observe(float64(d.Milliseconds()))
}

// ObserveQuery records how long a catalogue operation took.
func (m *Metrics) ObserveQuery(operation string, d time.Duration) {
	m.searchDuration.WithLabelValues(operation).Observe(float64(d.Milliseconds()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
