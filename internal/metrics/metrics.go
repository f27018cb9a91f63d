// Package metrics owns the Prometheus registry and the console's custom
// collectors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors other packages record into.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	LifecycleTransitions *prometheus.CounterVec
	RestartsPending      prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a private registry with the Go and process collectors plus
// the console's own metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridmanager_http_requests_total",
				Help: "HTTP requests by method and status code",
			},
			[]string{"method", "status"},
		),
		LifecycleTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridmanager_lifecycle_transitions_total",
				Help: "Grid and region status changes by entity and target state",
			},
			[]string{"entity", "state"},
		),
		RestartsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridmanager_region_restarts_pending",
				Help: "Region restarts waiting for their completion step",
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.RequestsTotal)
	registry.MustRegister(m.LifecycleTransitions)
	registry.MustRegister(m.RestartsPending)

	return m
}

// ObserveRequest counts one finished HTTP request.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Transition counts a status change of a grid or region.
func (m *Metrics) Transition(entity, state string) {
	m.LifecycleTransitions.WithLabelValues(entity, state).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
