// Package metrics exposes Prometheus metrics for the dashboard service: HTTP
// traffic it serves and calls it makes to the remote order API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Config holds configuration for the exporter.
type Config struct {
	// Namespace is the prefix for all metrics. Default: "orderdesk"
	Namespace string

	// HistogramBuckets are the buckets for duration histograms.
	// Default: prometheus.DefBuckets
	HistogramBuckets []float64

	// IncludeRuntime registers the Go and process collectors.
	IncludeRuntime bool
}

// Exporter owns a private registry and the service's collectors.
//
// Safe for concurrent use.
type Exporter struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	remoteRequestsTotal   *prometheus.CounterVec
	remoteRequestDuration *prometheus.HistogramVec
	bulkItemsTotal        *prometheus.CounterVec
	exportsTotal          *prometheus.CounterVec
}

// New creates an exporter with all collectors registered.
func New(cfg Config) *Exporter {
	if cfg.Namespace == "" {
		cfg.Namespace = "orderdesk"
	}
	if len(cfg.HistogramBuckets) == 0 {
		cfg.HistogramBuckets = prometheus.DefBuckets
	}

	e := &Exporter{registry: prometheus.NewRegistry()}

	e.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)
	e.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of served HTTP requests in seconds.",
			Buckets:   cfg.HistogramBuckets,
		},
		[]string{"method", "route"},
	)
	e.remoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Total number of calls made to the remote order API.",
		},
		[]string{"operation", "status"},
	)
	e.remoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Duration of calls to the remote order API in seconds.",
			Buckets:   cfg.HistogramBuckets,
		},
		[]string{"operation"},
	)
	e.bulkItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "bulk",
			Name:      "items_total",
			Help:      "Orders touched by bulk operations, by operation and result.",
		},
		[]string{"operation", "result"},
	)
	e.exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "export",
			Name:      "files_total",
			Help:      "Export files generated, by format.",
		},
		[]string{"format"},
	)

	e.registry.MustRegister(
		e.httpRequestsTotal,
		e.httpRequestDuration,
		e.remoteRequestsTotal,
		e.remoteRequestDuration,
		e.bulkItemsTotal,
		e.exportsTotal,
	)
	if cfg.IncludeRuntime {
		e.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return e
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveHTTP records one served request. route is the matched route
// template, not the raw path, to keep label cardinality bounded.
func (e *Exporter) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	e.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	e.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveRemote records one call to the remote order API. A status of 0
// means the call failed before a response arrived.
func (e *Exporter) ObserveRemote(operation string, status int, elapsed time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "transport_error"
	}
	e.remoteRequestsTotal.WithLabelValues(operation, label).Inc()
	e.remoteRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveBulk records how many orders a bulk operation succeeded and failed on.
func (e *Exporter) ObserveBulk(operation string, succeeded, failed int) {
	e.bulkItemsTotal.WithLabelValues(operation, "succeeded").Add(float64(succeeded))
	e.bulkItemsTotal.WithLabelValues(operation, "failed").Add(float64(failed))
}

// ObserveExport records one generated export file.
func (e *Exporter) ObserveExport(format string) {
	e.exportsTotal.WithLabelValues(format).Inc()
}

// Registry returns the Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Gather collects all metrics from the registry.
func (e *Exporter) Gather() ([]*dto.MetricFamily, error) {
	return e.registry.Gather()
}
