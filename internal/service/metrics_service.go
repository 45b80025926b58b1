package service

import (
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// MetricsSnapshot summarises counters for the health endpoint.
type MetricsSnapshot struct {
	CacheHitRatio    float64   `json:"cacheHitRatio"`
	CacheHits        uint64    `json:"cacheHits"`
	CacheMisses      uint64    `json:"cacheMisses"`
	UpstreamRequests uint64    `json:"upstreamRequests"`
	Mutations        uint64    `json:"mutations"`
	Goroutines       int       `json:"goroutines"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// MetricsService owns the Prometheus registry and implements the recorder
// interfaces of the cache, client, batch resolver and mutation coordinator.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLatency     prometheus.Histogram
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheFetches     *prometheus.HistogramVec
	invalidations    prometheus.Counter
	mutations        *prometheus.HistogramVec
	batchKeys        prometheus.Histogram
	batchChunks      prometheus.Histogram
	exports          *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
	upstreamCount  uint64
	mutationCount  uint64
}

// NewMetricsService registers the console collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of console HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of console HTTP requests",
		}, []string{"method", "path", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of school API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "resource", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "query_cache_lookup_seconds",
			Help:    "Latency of query cache reads, including shared fetches",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "query_cache_hit_ratio",
			Help: "Ratio of cache hits to total cache reads",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Reads served from a fresh entry",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Reads that started or joined a fetch",
		}),
		cacheFetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "query_cache_fetch_seconds",
			Help:    "Duration of fetches issued by the query cache",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource", "outcome"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_invalidated_entries_total",
			Help: "Entries marked stale by invalidation",
		}),
		mutations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mutation_duration_seconds",
			Help:    "Duration of mutations by operation and outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		batchKeys: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batch_resolution_keys",
			Help:    "Distinct keys per batch resolution",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		batchChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batch_resolution_chunks",
			Help:    "Chunks per batch resolution",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_exports_total",
			Help: "Roster exports by format and final status",
		}, []string{"format", "status"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.upstreamDuration,
		m.cacheLatency, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.cacheFetches, m.invalidations, m.mutations, m.batchKeys, m.batchChunks, m.exports,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records console request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveUpstreamRequest records a school API call. Status 0 means the
// request never got a response.
func (m *MetricsService) ObserveUpstreamRequest(method, resource string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(method, resource, strconv.Itoa(status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.upstreamCount, 1)
}

// RecordCacheOperation records a cache read and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheFetch records a fetch issued on behalf of cache readers.
func (m *MetricsService) ObserveCacheFetch(resource string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.cacheFetches.WithLabelValues(resource, outcome(err)).Observe(duration.Seconds())
}

// ObserveCacheInvalidation counts entries marked stale.
func (m *MetricsService) ObserveCacheInvalidation(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.invalidations.Add(float64(count))
}

// ObserveMutation records a mutation outcome.
func (m *MetricsService) ObserveMutation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, outcome(err)).Observe(duration.Seconds())
	atomic.AddUint64(&m.mutationCount, 1)
}

// ObserveBatchResolution records the shape of a batch resolution.
func (m *MetricsService) ObserveBatchResolution(keys, chunks int) {
	if m == nil {
		return
	}
	m.batchKeys.Observe(float64(keys))
	m.batchChunks.Observe(float64(chunks))
}

// ObserveExport counts a finished roster export.
func (m *MetricsService) ObserveExport(format, status string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, status).Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return MetricsSnapshot{
		CacheHitRatio:    ratio,
		CacheHits:        hits,
		CacheMisses:      misses,
		UpstreamRequests: atomic.LoadUint64(&m.upstreamCount),
		Mutations:        atomic.LoadUint64(&m.mutationCount),
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}

// outcome labels an error by its taxonomy code.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "error"
}
