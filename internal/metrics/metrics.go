// Package metrics owns the Prometheus registry served on the ops listener.
// Labels are limited to low-cardinality values (method, route pattern,
// status, page name) so request paths never become series.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithlinneman/celestialexplorer-web/internal/version"
)

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	// http
	inflight    prometheus.Gauge
	reqTotal    *prometheus.CounterVec
	reqDur      *prometheus.HistogramVec
	respBytes   *prometheus.HistogramVec
	errorsTotal *prometheus.CounterVec
	panicTotal  prometheus.Counter

	// rate limiting
	rateLimitedTotal prometheus.Counter
	capacityTotal    prometheus.Counter

	// pages
	renderTotal  *prometheus.CounterVec
	renderDur    *prometheus.HistogramVec
	renderErrors *prometheus.CounterVec
	renderBytes  *prometheus.HistogramVec

	// content
	contentSource   *prometheus.GaugeVec
	contentLoadedTs prometheus.Gauge
	contentBundle   *prometheus.GaugeVec
	contentSections prometheus.Gauge
	themeInfo       *prometheus.GaugeVec

	// watcher
	watcherPolls       prometheus.Counter
	watcherSwaps       prometheus.Counter
	watcherErrors      *prometheus.CounterVec
	bundleLoadDuration prometheus.Histogram
	watcherLastSuccess prometheus.Gauge
	watcherStale       prometheus.Gauge

	buildInfo       *prometheus.GaugeVec
	profilingActive prometheus.Gauge
}

// New returns metrics on a fresh registry with the Go and process collectors.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total 5xx responses by method and route",
		}, []string{"method", "route"}),
		panicTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_panic_total",
			Help: "Total recovered handler panics",
		}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total requests rejected by the rate limiter",
		}),
		capacityTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_capacity_total",
			Help: "Total times the rate limiter client table was full",
		}),
		renderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_renders_total",
			Help: "Rendered documents by page and status",
		}, []string{"page", "status"}),
		renderDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "page_render_duration_seconds",
			Help:    "Time to render a document by page",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.1},
		}, []string{"page"}),
		renderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_render_errors_total",
			Help: "Failed document renders by page",
		}, []string{"page"}),
		renderBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "page_render_size_bytes",
			Help:    "Rendered document size by page",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 8),
		}, []string{"page"}),
		contentSource: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "content_source_info",
			Help: "Current content source (label carries value, gauge is always 1)",
		}, []string{"source"}),
		contentLoadedTs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_loaded_timestamp_seconds",
			Help: "Unix timestamp of when the current content snapshot was loaded",
		}),
		contentBundle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "content_bundle_info",
			Help: "Active content bundle (labels carry identity, value is always 1)",
		}, []string{"sha256", "version"}),
		contentSections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_sections",
			Help: "Number of fact sections in the active snapshot",
		}),
		themeInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "theme_stylesheet_info",
			Help: "Compiled stylesheet (label carries its hash, value is its size in bytes)",
		}, []string{"sha256"}),
		watcherPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_watcher_polls_total",
			Help: "Total watcher poll cycles",
		}),
		watcherSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_watcher_swaps_total",
			Help: "Total content bundle swaps",
		}),
		watcherErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_watcher_errors_total",
			Help: "Total watcher errors by type",
		}, []string{"type"}),
		bundleLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "content_bundle_load_duration_seconds",
			Help:    "Time to download, verify, and extract a content bundle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		watcherLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_watcher_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful SSM poll",
		}),
		watcherStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_watcher_stale",
			Help: "Whether the content watcher is stale (1) or healthy (0)",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "component", "version", "commit", "commit_date", "build_id", "build_date", "vcs_dirty", "go_version"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "profiling_active",
			Help: "Whether continuous profiling is active (1) or disabled/failed (0)",
		}),
	}
	reg.MustRegister(
		m.inflight, m.reqTotal, m.reqDur, m.respBytes, m.errorsTotal, m.panicTotal,
		m.rateLimitedTotal, m.capacityTotal,
		m.renderTotal, m.renderDur, m.renderErrors, m.renderBytes,
		m.contentSource, m.contentLoadedTs, m.contentBundle, m.contentSections, m.themeInfo,
		m.watcherPolls, m.watcherSwaps, m.watcherErrors, m.bundleLoadDuration, m.watcherLastSuccess, m.watcherStale,
		m.buildInfo, m.profilingActive,
	)

	m.reg = reg
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return m
}

func (m *ServerMetrics) Handler() http.Handler { return m.handler }

func (m *ServerMetrics) IncHTTPPanic() { m.panicTotal.Inc() }

func (m *ServerMetrics) IncRateLimitDenied() { m.rateLimitedTotal.Inc() }

func (m *ServerMetrics) IncRateLimitCapacity() { m.capacityTotal.Inc() }

// SetBuildInfo is called once at startup.
func (m *ServerMetrics) SetBuildInfo(component string, vi version.Info) {
	dirty := "unknown"
	if vi.VCSDirty != nil {
		dirty = strconv.FormatBool(*vi.VCSDirty)
	}
	m.buildInfo.With(prometheus.Labels{
		"app":         vi.App,
		"component":   component,
		"version":     vi.Version,
		"commit":      vi.Commit,
		"commit_date": vi.CommitDate,
		"build_id":    vi.BuildID,
		"build_date":  vi.BuildDate,
		"go_version":  vi.GoVersion,
		"vcs_dirty":   dirty,
	}).Set(1)
}

func (m *ServerMetrics) SetProfilingActive(active bool) { m.profilingActive.Set(boolGauge(active)) }

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
