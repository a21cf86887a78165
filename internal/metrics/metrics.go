package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orderhub"

type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPLatencyMS     *prometheus.HistogramVec
	OrdersWritten     *prometheus.CounterVec
	OrderItemChanges  *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
	StockChecks       *prometheus.CounterVec
	ProductCacheReads *prometheus.CounterVec
	BrokerState       prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Passing a fresh registry keeps tests
// isolated from the global one.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		OrdersWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_written_total",
			Help:      "Orders persisted, by use case and outcome.",
		}, []string{"operation", "result"}),
		OrderItemChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_item_changes_total",
			Help:      "Order item rows written by reconciliation.",
		}, []string{"change"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker.",
		}, []string{"routing_key", "result"}),
		StockChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_checks_total",
			Help:      "Calls to the inventory service.",
		}, []string{"result"}),
		ProductCacheReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_cache_reads_total",
			Help:      "Product cache lookups.",
		}, []string{"result"}),
		BrokerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_connection_state",
			Help:      "0 disconnected, 1 connecting, 2 connected, 3 reconnecting, 4 closed.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPLatencyMS,
		m.OrdersWritten,
		m.OrderItemChanges,
		m.EventsPublished,
		m.StockChecks,
		m.ProductCacheReads,
		m.BrokerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Result labels an outcome as ok or error.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
