// Package metrics provides Prometheus instrumentation for the picks app.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PicksRecorded counts picks submitted, partitioned by session kind.
	PicksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pats_picks_recorded_total",
		Help: "Total number of picks recorded",
	}, []string{"kind"})

	// ResultsGraded counts final results applied to the ledger,
	// partitioned by whether the application was a first grading or a
	// correction (revert-then-reapply).
	ResultsGraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pats_results_graded_total",
		Help: "Total number of final results graded into the ledger",
	}, []string{"mode"})

	// LiveUpdates counts live score refreshes (never touch the ledger).
	LiveUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pats_live_updates_total",
		Help: "Total number of live score updates",
	})

	// SessionTransitions counts close and reopen operations.
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pats_session_transitions_total",
		Help: "Total number of session lifecycle transitions",
	}, []string{"transition"})

	// ActiveSessions tracks how many sessions are currently open.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pats_active_sessions",
		Help: "Number of currently active sessions",
	})

	// StandingsCacheHits counts standings lookups served from cache.
	StandingsCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pats_standings_cache_hits_total",
		Help: "Standings requests served from cache",
	})

	// StandingsCacheMisses counts standings lookups that recomputed.
	StandingsCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pats_standings_cache_misses_total",
		Help: "Standings requests that required recomputation",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pats_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pats_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Label with the route template, not the concrete path: raw
		// paths carry session IDs and would mint unbounded series.
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
