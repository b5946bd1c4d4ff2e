package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every pipeline series on a private registry so several
// pipelines can run in one process.
type Metrics struct {
	namespace string
	registry  *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	BufferLength      prometheus.Gauge
	BufferDropped     prometheus.Counter
	EventsProcessed   *prometheus.CounterVec
	DrainDuration     prometheus.Histogram
	AdapterErrors     *prometheus.CounterVec
	SourceActive      *prometheus.GaugeVec
	Reconnects        *prometheus.CounterVec
	AlertsRaised      *prometheus.CounterVec
	RuleErrors        prometheus.Counter
	Recommendations   *prometheus.CounterVec
	Connections       prometheus.Gauge
	Subscriptions     prometheus.Gauge
	DeliveryFailures  prometheus.Counter
	MalformedMessages prometheus.Counter
	PerformanceScore  prometheus.Gauge
	JournalDropped    prometheus.Counter
}

// -----------------------------------------------------------------------------

// New creates the series under namespace (hyphens become underscores).
func New(namespace string) *Metrics {
	ns := strings.ReplaceAll(namespace, "-", "_")
	m := &Metrics{
		namespace: ns,
		registry:  prometheus.NewRegistry(),
	}

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds", Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	m.BufferLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "stream_buffer_length", Help: "Events waiting in the stream buffer",
	})
	m.BufferDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "stream_buffer_dropped_total", Help: "Events evicted from a full stream buffer",
	})
	m.EventsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "events_processed_total", Help: "Events drained from the buffer by kind",
	}, []string{"kind"})
	m.DrainDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns, Name: "drain_duration_seconds", Help: "Time spent processing one drained batch", Buckets: prometheus.DefBuckets,
	})
	m.AdapterErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "adapter_errors_total", Help: "Failed or timed out polls by source",
	}, []string{"source"})
	m.SourceActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns, Name: "source_active", Help: "1 when the source is being polled",
	}, []string{"source"})
	m.Reconnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "source_reconnects_total", Help: "Reconnects performed by source",
	}, []string{"source"})
	m.AlertsRaised = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "alerts_raised_total", Help: "Alerts raised by category",
	}, []string{"category"})
	m.RuleErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "rule_errors_total", Help: "Rule evaluations that failed and were skipped",
	})
	m.Recommendations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "recommendations_total", Help: "Recommendations generated by kind",
	}, []string{"kind"})
	m.Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "ws_connections", Help: "Open client connections",
	})
	m.Subscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "subscriptions", Help: "Registered subscriptions",
	})
	m.DeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "delivery_failures_total", Help: "Sends that failed and dropped the connection",
	})
	m.MalformedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "malformed_messages_total", Help: "Inbound frames dropped as malformed or rate limited",
	})
	m.PerformanceScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "performance_score", Help: "Overall dashboard performance score (0-100)",
	})
	m.JournalDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "journal_dropped_total", Help: "Audit records dropped because the journal queue was full",
	})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal, m.httpRequestDuration,
		m.BufferLength, m.BufferDropped, m.EventsProcessed, m.DrainDuration,
		m.AdapterErrors, m.SourceActive, m.Reconnects,
		m.AlertsRaised, m.RuleErrors, m.Recommendations,
		m.Connections, m.Subscriptions, m.DeliveryFailures, m.MalformedMessages,
		m.PerformanceScore, m.JournalDropped,
	)
	return m
}

// -----------------------------------------------------------------------------

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// -----------------------------------------------------------------------------

// SetSourceActive records a source's liveness.
func (m *Metrics) SetSourceActive(sourceID string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	m.SourceActive.WithLabelValues(sourceID).Set(v)
}

// -----------------------------------------------------------------------------

// ForgetSource drops the per-source series of a removed source.
func (m *Metrics) ForgetSource(sourceID string) {
	m.SourceActive.DeleteLabelValues(sourceID)
	m.AdapterErrors.DeleteLabelValues(sourceID)
	m.Reconnects.DeleteLabelValues(sourceID)
}

// -----------------------------------------------------------------------------

// MetricsMiddleware returns middleware that collects HTTP metrics
func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// -----------------------------------------------------------------------------

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
