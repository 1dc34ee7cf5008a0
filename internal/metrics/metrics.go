// Package metrics exposes Prometheus collectors for the HTTP layer and the
// case import pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	casesImported  prometheus.Counter
	casesSkipped   prometheus.Counter
	casesRejected  prometheus.Counter
	notifyFailures *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costlaw",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "costlaw",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		casesImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "costlaw",
			Name:      "cases_imported_total",
			Help:      "Case records stored by bulk import.",
		}),
		casesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "costlaw",
			Name:      "cases_skipped_total",
			Help:      "Case records skipped by bulk import because the slug was taken.",
		}),
		casesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "costlaw",
			Name:      "cases_rejected_total",
			Help:      "Case records dropped by the import transform.",
		}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costlaw",
			Name:      "notification_failures_total",
			Help:      "Failed outbound notifications by channel.",
		}, []string{"channel"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.casesImported,
		m.casesSkipped,
		m.casesRejected,
		m.notifyFailures,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format. A nil
// receiver serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveImport records a finished bulk import. Safe on a nil receiver.
func (m *Metrics) ObserveImport(imported, skipped, rejected int) {
	if m == nil {
		return
	}
	m.casesImported.Add(float64(imported))
	m.casesSkipped.Add(float64(skipped))
	m.casesRejected.Add(float64(rejected))
}

// NotifyFailed counts a failed notification. Safe on a nil receiver.
func (m *Metrics) NotifyFailed(channel string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(channel).Inc()
}

// Middleware labels requests with the matched mux route template so path
// parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(wrapped.status)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
