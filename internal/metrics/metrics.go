package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process metrics registry.
type Collector struct {
	reg *prometheus.Registry

	HTTPRequests *prometheus.CounterVec // method, path, status
	HTTPDuration *prometheus.HistogramVec

	UpstreamRequests *prometheus.CounterVec // upstream label: transit|nominatim|alerts|email
	UpstreamErrors   *prometheus.CounterVec

	RefreshCycles *prometheus.CounterVec // flow label: tracking|notifications; outcome: rendered|error
	ActiveAlerts  prometheus.Gauge

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	FeedbackSubmitted prometheus.Counter
	FeedbackFallback  prometheus.Counter
}

// NewCollector builds and registers all metrics on a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartshuttle_http_requests_total",
			Help: "Total HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartshuttle_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartshuttle_upstream_requests_total",
			Help: "Total requests issued to upstream services.",
		}, []string{"upstream"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartshuttle_upstream_errors_total",
			Help: "Total upstream request failures.",
		}, []string{"upstream"}),
		RefreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartshuttle_refresh_cycles_total",
			Help: "Overlay refresh cycles by view flow and outcome.",
		}, []string{"flow", "outcome"}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartshuttle_active_alerts",
			Help: "Number of currently active service alerts.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartshuttle_transit_cache_hits_total",
			Help: "Total nearby-routes cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartshuttle_transit_cache_misses_total",
			Help: "Total nearby-routes cache misses.",
		}),
		FeedbackSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartshuttle_feedback_submitted_total",
			Help: "Total feedback submissions accepted.",
		}),
		FeedbackFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartshuttle_feedback_fallback_total",
			Help: "Total feedback submissions logged locally because the relay was unreachable.",
		}),
	}

	reg.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.UpstreamRequests, c.UpstreamErrors,
		c.RefreshCycles, c.ActiveAlerts,
		c.CacheHits, c.CacheMisses,
		c.FeedbackSubmitted, c.FeedbackFallback,
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
