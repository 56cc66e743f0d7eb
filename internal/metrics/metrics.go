package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

type Metrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	OrdersPlaced   prometheus.Counter
	OrderFailures  *prometheus.CounterVec
	ArchiveDropped prometheus.Counter
	ArchiveWrites  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration on the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed to the ledger.",
		}),
		OrderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_failures_total",
			Help:      "Order placements rejected, by reason.",
		}, []string{"reason"}),
		ArchiveDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_dropped_total",
			Help:      "Committed orders not queued for archiving because the queue was full.",
		}),
		ArchiveWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_writes_total",
			Help:      "Archive write attempts, by status.",
		}, []string{"status"}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.OrdersPlaced, m.OrderFailures, m.ArchiveDropped, m.ArchiveWrites)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
