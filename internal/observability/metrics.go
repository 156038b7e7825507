package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecom_dashboard"

// Metrics is the set of collectors the dashboard exposes on /metrics. Each value
// owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	computations    prometheus.Counter
	computeDuration prometheus.Histogram
	datasetRows     prometheus.Gauge
	filteredRows    prometheus.Gauge
	exports         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		computations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Filter and aggregate passes over the dataset.",
		}),
		computeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Time spent filtering and aggregating.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset.",
		}),
		filteredRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows matched by the most recent filter.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Filtered data downloads by format.",
		}, []string{"format"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.computations,
		m.computeDuration,
		m.datasetRows,
		m.filteredRows,
		m.exports,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveCompute(rows int, d time.Duration) {
	if m == nil {
		return
	}
	m.computations.Inc()
	m.computeDuration.Observe(d.Seconds())
	m.filteredRows.Set(float64(rows))
}

func (m *Metrics) SetDatasetRows(n int) {
	if m == nil {
		return
	}
	m.datasetRows.Set(float64(n))
}

func (m *Metrics) ObserveExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}
