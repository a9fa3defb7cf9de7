// Package metrics holds the Prometheus collectors of the API. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	placeWrites     *prometheus.CounterVec
	logins          *prometheus.CounterVec
	signups         prometheus.Counter
	imageCleanups   *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		placeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "places_writes_total",
			Help: "Total number of committed place writes by operation",
		}, []string{"operation"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Total number of accounts created",
		}),
		imageCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "places_image_cleanups_total",
			Help: "Total number of stored image removals by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.placeWrites,
		m.logins,
		m.signups,
		m.imageCleanups,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records the count and latency of every request, labelled with
// the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// PlaceWritten counts a committed create, update or delete.
func (m *Metrics) PlaceWritten(operation string) {
	if m == nil {
		return
	}
	m.placeWrites.WithLabelValues(operation).Inc()
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Signup() {
	if m == nil {
		return
	}
	m.signups.Inc()
}

// ImageCleanup counts the outcome of a best-effort image removal.
func (m *Metrics) ImageCleanup(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.imageCleanups.WithLabelValues(result).Inc()
}
