package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "brainbridge"

// Prometheus implements Collector using Prometheus metrics.
type Prometheus struct {
	requests          *prometheus.CounterVec
	responses         *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	requestTimeouts   *prometheus.CounterVec
	decodeFailures    prometheus.Counter
	protocolViolation prometheus.Counter
	pending           prometheus.Gauge
	processStarts     prometheus.Counter
	processExits      *prometheus.CounterVec

	registry *prometheus.Registry
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates a collector registered on a fresh registry. The
// registry also carries the Go runtime and process collectors.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	p := &Prometheus{
		registry: prometheus.NewRegistry(),
	}

	p.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests written to the backend",
		},
		[]string{"kind"},
	)

	p.responses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Total number of responses decoded from the backend",
		},
		[]string{"status"},
	)

	p.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from sending a request to resolving it",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	p.requestTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_timeouts_total",
			Help:      "Total number of requests whose deadline expired",
		},
		[]string{"kind"},
	)

	p.decodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Total number of stdout lines that were not valid responses",
		},
	)

	p.protocolViolation = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_violations_total",
			Help:      "Total number of responses received with no pending request",
		},
	)

	p.pending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_requests",
			Help:      "Current number of requests awaiting a response",
		},
	)

	p.processStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_starts_total",
			Help:      "Total number of backend processes started",
		},
	)

	p.processExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_exits_total",
			Help:      "Total number of backend process exits",
		},
		[]string{"reason"},
	)

	p.registry.MustRegister(
		p.requests,
		p.responses,
		p.requestDuration,
		p.requestTimeouts,
		p.decodeFailures,
		p.protocolViolation,
		p.pending,
		p.processStarts,
		p.processExits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return p
}

func (p *Prometheus) RequestSent(kind string) {
	p.requests.WithLabelValues(kind).Inc()
}

func (p *Prometheus) ResponseReceived(status string) {
	p.responses.WithLabelValues(status).Inc()
}

func (p *Prometheus) RequestCompleted(kind string, duration time.Duration) {
	p.requestDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (p *Prometheus) RequestTimedOut(kind string) {
	p.requestTimeouts.WithLabelValues(kind).Inc()
}

func (p *Prometheus) DecodeFailure() {
	p.decodeFailures.Inc()
}

func (p *Prometheus) ProtocolViolation() {
	p.protocolViolation.Inc()
}

func (p *Prometheus) PendingRequests(n int) {
	p.pending.Set(float64(n))
}

func (p *Prometheus) ProcessStarted() {
	p.processStarts.Inc()
}

func (p *Prometheus) ProcessExit(reason string) {
	p.processExits.WithLabelValues(reason).Inc()
}

// Registry returns the Prometheus registry for HTTP handler setup.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
