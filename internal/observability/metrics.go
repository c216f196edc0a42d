// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// History metrics
	HistoryPagesFetched prometheus.Counter

	// Classification metrics
	TransactionsClassified  prometheus.Counter
	InFlightClassifications prometheus.Gauge

	// Pricing metrics
	QuoteFailures prometheus.Counter

	// Tool server metrics
	ToolInvocations *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_lens"
	}

	return &Metrics{
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		HistoryPagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "pages_fetched_total",
			Help:      "Total number of signature pages fetched",
		}),

		TransactionsClassified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "transactions_classified_total",
			Help:      "Total number of transactions classified",
		}),
		InFlightClassifications: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "in_flight_classifications",
			Help:      "Number of fetch+classify tasks currently in flight",
		}),

		QuoteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "quote_failures_total",
			Help:      "Total number of unavailable external price quotes",
		}),

		ToolInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "tool_invocations_total",
			Help:      "Total number of tool invocations by tool and status",
		}, []string{"tool", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCCall records latency and outcome of one RPC call attempt.
func RecordRPCCall(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordHistoryPage increments the fetched page counter.
func RecordHistoryPage() {
	DefaultMetrics.HistoryPagesFetched.Inc()
}

// RecordClassification increments the classified transaction counter.
func RecordClassification() {
	DefaultMetrics.TransactionsClassified.Inc()
}

// ClassificationStarted marks a fetch+classify task as in flight.
func ClassificationStarted() {
	DefaultMetrics.InFlightClassifications.Inc()
}

// ClassificationDone marks a fetch+classify task as finished.
func ClassificationDone() {
	DefaultMetrics.InFlightClassifications.Dec()
}

// RecordQuoteFailure increments the unavailable quote counter.
func RecordQuoteFailure() {
	DefaultMetrics.QuoteFailures.Inc()
}

// RecordToolInvocation records one tool invocation result.
func RecordToolInvocation(tool, status string) {
	DefaultMetrics.ToolInvocations.WithLabelValues(tool, status).Inc()
}
