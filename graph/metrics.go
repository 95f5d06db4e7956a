package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector is the ambient metrics collaborator: an external
// interface the engine drives, exactly like Observer, so that any metrics
// backend (or none) can be plugged in without the core engine depending on
// one. A nil MetricsCollector is valid.
type MetricsCollector interface {
	NodeStarted(runID, nodeName string)
	NodeFinished(runID, nodeName string, dur time.Duration, status string)
	FallbackUsed(runID, nodeName string)
}

// PrometheusMetrics collects graph-execution metrics in Prometheus's
// gauge/histogram/counter shape: an inflight-nodes gauge, a per-node
// latency histogram labeled by status, and a fallback-usage counter.
type PrometheusMetrics struct {
	inflight prometheus.Gauge
	latency  *prometheus.HistogramVec
	fallback *prometheus.CounterVec
}

// NewPrometheusMetrics registers graph-execution metrics, namespaced
// "dagflow_", against reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "dagflow",
			Name:      "inflight_nodes",
			Help:      "Number of nodes currently executing across all runs.",
		}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dagflow",
			Name:      "node_latency_seconds",
			Help:      "Node invocation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node", "status"}),
		fallback: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dagflow",
			Name:      "fallback_total",
			Help:      "Count of node invocations recovered by a fallback value.",
		}, []string{"node"}),
	}
}

func (m *PrometheusMetrics) NodeStarted(_, _ string) {
	m.inflight.Inc()
}

func (m *PrometheusMetrics) NodeFinished(_, nodeName string, dur time.Duration, status string) {
	m.inflight.Dec()
	m.latency.WithLabelValues(nodeName, status).Observe(dur.Seconds())
}

func (m *PrometheusMetrics) FallbackUsed(_, nodeName string) {
	m.fallback.WithLabelValues(nodeName).Inc()
}
