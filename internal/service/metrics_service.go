package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Planner run outcomes used as the result label of planner_runs_total.
const (
	PlanResultOK      = "ok"
	PlanResultInvalid = "invalid"
	PlanResultError   = "error"
	PlanResultEmpty   = "empty"
)

// MetricsService owns a private Prometheus registry for HTTP, cache and planner metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	planRuns        *prometheus.CounterVec
	planRequested   prometheus.Counter
	planPlaced      prometheus.Counter
	planDuration    prometheus.Histogram
	planAccepted    prometheus.Counter
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by outcome",
		}, []string{"outcome"}),
		planRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_runs_total",
			Help: "Study plan computations by result",
		}, []string{"result"}),
		planRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_sessions_requested_total",
			Help: "Sessions requested across all planner runs",
		}),
		planPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_sessions_placed_total",
			Help: "Sessions placed across all planner runs",
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_run_duration_seconds",
			Help:    "Time spent computing a study plan",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		planAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_sessions_accepted_total",
			Help: "Suggested sessions persisted as study sessions",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheLookups,
		m.planRuns, m.planRequested, m.planPlaced, m.planDuration, m.planAccepted,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Registry exposes the underlying registry for tests and additional collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup outcome.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObservePlanRun records one planner computation.
func (m *MetricsService) ObservePlanRun(result string, requested, placed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.planRuns.WithLabelValues(result).Inc()
	m.planRequested.Add(float64(requested))
	m.planPlaced.Add(float64(placed))
	m.planDuration.Observe(duration.Seconds())
}

// ObservePlanAccepted counts suggestions persisted from a proposal.
func (m *MetricsService) ObservePlanAccepted(count int) {
	if m == nil {
		return
	}
	m.planAccepted.Add(float64(count))
}
