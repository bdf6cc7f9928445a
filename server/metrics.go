package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the generation service.
type Metrics struct {
	registry                *prometheus.Registry
	requestsTotal           prometheus.Counter
	generationsTotal        prometheus.Counter
	generationFailuresTotal prometheus.Counter
	activeGenerations       prometheus.Gauge
	errorsTotal             prometheus.Counter
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verseforge_requests_total",
		Help: "Total number of HTTP requests received",
	})
	generationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verseforge_generations_total",
		Help: "Total number of song generations started",
	})
	generationFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verseforge_generation_failures_total",
		Help: "Total number of song generations that ended in failure",
	})
	activeGenerations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "verseforge_active_generations",
		Help: "Number of generations currently in flight",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verseforge_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		generationsTotal,
		generationFailuresTotal,
		activeGenerations,
		errorsTotal,
	)

	return &Metrics{
		registry:                registry,
		requestsTotal:           requestsTotal,
		generationsTotal:        generationsTotal,
		generationFailuresTotal: generationFailuresTotal,
		activeGenerations:       activeGenerations,
		errorsTotal:             errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// GenerationStarted marks one generation as in flight.
func (m *Metrics) GenerationStarted() {
	m.generationsTotal.Inc()
	m.activeGenerations.Inc()
}

// GenerationFinished marks one generation as finished.
func (m *Metrics) GenerationFinished(failed bool) {
	m.activeGenerations.Dec()
	if failed {
		m.generationFailuresTotal.Inc()
	}
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for the metrics
// middleware while passing flushes and connection hijacking through,
// so event streams and websocket upgrades work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// MetricsMiddleware records request and error counts for every route.
func MetricsMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrap := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			m.IncRequests()
			if wrap.status >= 400 {
				m.IncErrors()
			}
		})
	}
}
