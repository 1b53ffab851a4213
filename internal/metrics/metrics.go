// Package metrics exposes Prometheus collectors for habit activity and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/habitual/internal/constants"
)

// Metrics owns a private registry so tests and multiple servers never collide on the
// global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	logsWritten       *prometheus.CounterVec
	logsUndone        prometheus.Counter
	recomputeDuration *prometheus.HistogramVec
	missedMarked      prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter
}

func New() *Metrics {
	ns := constants.AppName
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "logs_written_total",
				Help:      "Habit logs written, by status",
			},
			[]string{"status"},
		),
		logsUndone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "logs_undone_total",
			Help:      "Habit logs deleted by undo",
		}),
		recomputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "stats_recompute_duration_seconds",
				Help:      "Duration of habit stats recomputes",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		missedMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "missed_days_marked_total",
			Help:      "Logs written as missed by the missed-day sweep",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logsWritten,
		m.logsUndone,
		m.recomputeDuration,
		m.missedMarked,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.rateLimited,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LogWritten(status constants.LogStatus) {
	m.logsWritten.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) LogUndone() {
	m.logsUndone.Inc()
}

func (m *Metrics) StatsRecomputed(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.recomputeDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *Metrics) MissedDaysMarked(n int) {
	m.missedMarked.Add(float64(n))
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Middleware records request counts and latency. Paths are labelled by their route
// template so ids and dates do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		path := routeTemplate(r)
		m.httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(ww.statusCode)).Inc()
		m.httpRequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
