package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for tool calls and
// upstream NWS requests.
type Metrics struct {
	// Tool invocation metrics.
	ToolCalls    *prometheus.CounterVec   // labels: tool, status={ok,empty,invalid_input,unavailable,malformed}
	ToolDuration *prometheus.HistogramVec // labels: tool

	// Upstream NWS API metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={ok,timeout,http_error,transport_error,parse_error}
	UpstreamDuration prometheus.Histogram

	// Audit sink metrics.
	AuditPublished     prometheus.Counter
	AuditPublishErrors prometheus.Counter
	AuditEnabled       prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ToolCalls,
		m.ToolDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.AuditPublished,
		m.AuditPublishErrors,
		m.AuditEnabled,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_mcp",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and result status.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_mcp",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation duration including upstream requests.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"tool"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_mcp",
			Name:      "nws_requests_total",
			Help:      "NWS API requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_mcp",
			Name:      "nws_request_duration_seconds",
			Help:      "NWS API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AuditPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_mcp",
			Name:      "audit_published_total",
			Help:      "Invocation records written to the audit topic.",
		}),
		AuditPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_mcp",
			Name:      "audit_publish_errors_total",
			Help:      "Invocation records that failed to publish.",
		}),
		AuditEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_mcp",
			Name:      "audit_enabled",
			Help:      "1 when the Kafka audit sink is enabled, 0 otherwise.",
		}),
	}
}
