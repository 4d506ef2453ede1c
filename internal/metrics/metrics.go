// Package metrics records Prometheus metrics from eventbus events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/graphmock/internal/eventbus"
	events "github.com/hanpama/graphmock/internal/events"
)

// Metrics holds the collectors fed by Subscribe.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	graphqlRequests *prometheus.CounterVec
	graphqlErrors   *prometheus.CounterVec
	graphqlLatency  *prometheus.HistogramVec
	resolverErrors  *prometheus.CounterVec
	resolverLatency *prometheus.HistogramVec
	packs           *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry along
// with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphmock_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphmock_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		graphqlRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphmock_graphql_operations_total",
				Help: "Total number of executed GraphQL operations.",
			},
			[]string{"type"},
		),
		graphqlErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphmock_graphql_errors_total",
				Help: "Total number of errors returned from GraphQL operations.",
			},
			[]string{"type"},
		),
		graphqlLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphmock_graphql_operation_duration_seconds",
				Help:    "Latency of GraphQL operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		resolverErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphmock_resolver_errors_total",
				Help: "Total number of resolver errors.",
			},
			[]string{"field"},
		),
		resolverLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphmock_resolver_duration_seconds",
				Help:    "Latency of resolver calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"field"},
		),
		packs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphmock_packs_total",
				Help: "Total number of resolver map packs.",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.httpRequests, m.httpLatency,
		m.graphqlRequests, m.graphqlErrors, m.graphqlLatency,
		m.resolverErrors, m.resolverLatency,
		m.packs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Subscribe feeds the collectors from the global bus.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			m.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
			m.httpLatency.WithLabelValues(e.Request.Method).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			m.graphqlRequests.WithLabelValues(e.OperationType).Inc()
			m.graphqlLatency.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
			if n := len(e.Errors); n > 0 {
				m.graphqlErrors.WithLabelValues(e.OperationType).Add(float64(n))
			}
		}),
		eventbus.Subscribe(func(_ context.Context, e events.ResolverFinish) {
			field := e.Type + "." + e.Field
			m.resolverLatency.WithLabelValues(field).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.resolverErrors.WithLabelValues(field).Inc()
			}
		}),
		eventbus.Subscribe(func(_ context.Context, e events.PackFinish) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.packs.WithLabelValues(result).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
