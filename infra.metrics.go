package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromMetrics holds the prometheus collectors of the api.
// Each instance owns its registry.
type PromMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	limited  prometheus.Counter
}

// NewPromMetrics registers the http and catalog collectors. The summary
// function is evaluated at every scrape to expose the catalog gauges.
func NewPromMetrics(summary func() CatalogSummary) *PromMetrics {
	reg := prometheus.NewRegistry()
	m := &PromMetrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Name:      "http_requests_total",
			Help:      "Number of processed http requests.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookstore",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of http requests.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method"}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookstore",
			Name:      "http_requests_rate_limited_total",
			Help:      "Number of requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.limited,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "bookstore",
			Name:      "catalog_books",
			Help:      "Number of books in the catalog.",
		}, func() float64 { return float64(summary().TotalBooks) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "bookstore",
			Name:      "catalog_stock",
			Help:      "Sum of the stock of all books.",
		}, func() float64 { return float64(summary().TotalStock) }),
	)
	return m
}

// ObserveRequest records one processed request.
func (m *PromMetrics) ObserveRequest(method string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveRateLimited records one request rejected by the limiter.
func (m *PromMetrics) ObserveRateLimited() {
	m.limited.Inc()
}

// Handler exposes the registry in the prometheus text format.
func (m *PromMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
