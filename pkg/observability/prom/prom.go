// Package prom implements the observability hooks on Prometheus metrics.
//
// Each Metrics value owns its registry, so tests and multiple servers in one
// process never collide on the default registry:
//
//	m := prom.New()
//	observability.SetLayoutHooks(m)
//	http.Handle("/metrics", m.Handler())
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/forkline/pkg/observability"
)

const namespace = "forkline"

// Metrics implements every hook interface of package observability.
type Metrics struct {
	reg *prometheus.Registry

	PassesTotal     *prometheus.CounterVec
	PassDuration    prometheus.Histogram
	StageDuration   *prometheus.HistogramVec
	PassCommits     prometheus.Histogram
	LoopsTotal      prometheus.Counter
	SkippedTotal    prometheus.Counter
	BackEdgesTotal  prometheus.Counter
	PagesTotal      prometheus.Counter
	PassesApplied   prometheus.Counter
	PassesDiscarded *prometheus.CounterVec
	CacheTotal      *prometheus.CounterVec
	CacheBytes      prometheus.Counter
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		PassesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Layout passes by result and cache status",
		}, []string{"result", "cache"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Layout pass duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Layout stage duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16),
		}, []string{"stage"}),
		PassCommits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_commits",
			Help:      "Commits per layout pass",
			Buckets:   []float64{10, 100, 500, 1000, 5000, 10000, 50000},
		}),
		LoopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loops_total",
			Help:      "Loops annotated",
		}),
		SkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loops_skipped_total",
			Help:      "Loops abandoned because their walk failed",
		}),
		BackEdgesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "back_edges_total",
			Help:      "Parent links ignored because they close a cycle",
		}),
		PagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "pages_total",
			Help:      "History pages appended to sessions",
		}),
		PassesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "passes_applied_total",
			Help:      "Pass results delivered to a surface",
		}),
		PassesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "passes_discarded_total",
			Help:      "Pass results dropped by reason",
		}, []string{"reason"}),
		CacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache operations by key type and result",
		}, []string{"key_type", "result"}),
		CacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PassesTotal, m.PassDuration, m.StageDuration, m.PassCommits,
		m.LoopsTotal, m.SkippedTotal, m.BackEdgesTotal,
		m.PagesTotal, m.PassesApplied, m.PassesDiscarded,
		m.CacheTotal, m.CacheBytes,
		m.RequestsTotal, m.RequestDuration,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Register installs m as the layout, session, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetLayoutHooks(m)
	observability.SetSessionHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// =============================================================================
// observability.LayoutHooks
// =============================================================================

func (m *Metrics) OnPassStart(context.Context, int) {}

func (m *Metrics) OnStage(_ context.Context, stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) OnPassComplete(_ context.Context, s observability.PassStats, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	cache := "miss"
	if s.CacheHit {
		cache = "hit"
	}
	m.PassesTotal.WithLabelValues(result, cache).Inc()
	if err != nil {
		return
	}
	m.PassDuration.Observe(s.Duration.Seconds())
	m.PassCommits.Observe(float64(s.Commits))
	m.LoopsTotal.Add(float64(s.Loops))
	m.SkippedTotal.Add(float64(s.Skipped))
	m.BackEdgesTotal.Add(float64(s.BackEdges))
}

// =============================================================================
// observability.SessionHooks
// =============================================================================

func (m *Metrics) OnPageLoaded(context.Context, int) { m.PagesTotal.Inc() }

func (m *Metrics) OnPassApplied(context.Context, uint64) { m.PassesApplied.Inc() }

func (m *Metrics) OnPassDiscarded(_ context.Context, reason string) {
	m.PassesDiscarded.WithLabelValues(reason).Inc()
}

// =============================================================================
// observability.CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheTotal.WithLabelValues(keyType, "set").Inc()
	m.CacheBytes.Add(float64(size))
}

// =============================================================================
// observability.HTTPHooks
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.LayoutHooks  = (*Metrics)(nil)
	_ observability.SessionHooks = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
	_ observability.HTTPHooks    = (*Metrics)(nil)
)
