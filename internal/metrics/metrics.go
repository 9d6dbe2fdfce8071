// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request and send latency.
var defaultBuckets = []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	DatagramsSent  prometheus.Counter
	BytesSent      prometheus.Counter
	SendDuration   prometheus.Histogram
	SendErrors     *prometheus.CounterVec
	RelaysRejected *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cot_udp_proxy_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cot_udp_proxy_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cot_udp_proxy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		DatagramsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cot_udp_proxy_datagrams_sent_total",
			Help: "Total UDP datagrams handed to the OS.",
		}),

		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cot_udp_proxy_datagram_bytes_sent_total",
			Help: "Total UDP payload bytes sent.",
		}),

		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cot_udp_proxy_send_duration_seconds",
			Help:    "Time to open an ephemeral socket and send one datagram.",
			Buckets: defaultBuckets,
		}),

		SendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cot_udp_proxy_send_errors_total",
			Help: "UDP send failures by stage (socket, send).",
		}, []string{"op"}),

		RelaysRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cot_udp_proxy_relays_rejected_total",
			Help: "Relay requests rejected before sending, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.DatagramsSent,
		m.BytesSent,
		m.SendDuration,
		m.SendErrors,
		m.RelaysRejected,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPaths lists the allowed path label values (bounded cardinality).
var knownPaths = map[string]bool{"/": true, "/cot": true, "/metrics": true}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}
