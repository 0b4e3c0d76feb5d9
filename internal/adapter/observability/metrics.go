package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route, method and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// EvaluationsTotal counts completed evaluations by question type and
	// grading source (local or remote).
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Total number of completed evaluations",
		},
		[]string{"type", "source"},
	)
	// RemoteFallbackTotal counts remote-grader failures that fell back to
	// local keyword scoring, by failure reason.
	RemoteFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_grader_fallback_total",
			Help: "Total number of fallbacks from the remote grader to local scoring",
		},
		[]string{"reason"},
	)
	// ScoreRatioHistogram observes score/maxPoints for completed evaluations.
	ScoreRatioHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_score_ratio",
			Help:    "Distribution of score divided by max points",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
	// ConfidenceHistogram observes reported grading confidence.
	ConfidenceHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_confidence",
			Help:    "Distribution of evaluation confidence (0-100)",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

// InitMetrics registers all collectors with the default registry. Call once
// per process.
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		EvaluationsTotal,
		RemoteFallbackTotal,
		ScoreRatioHistogram,
		ConfidenceHistogram,
	)
}

// ObserveEvaluation records the outcome metrics for one completed evaluation.
func ObserveEvaluation(questionType, source string, score, maxPoints, confidence int) {
	EvaluationsTotal.WithLabelValues(questionType, source).Inc()
	if maxPoints > 0 {
		ScoreRatioHistogram.Observe(float64(score) / float64(maxPoints))
	}
	ConfidenceHistogram.Observe(float64(confidence))
}

// HTTPMetricsMiddleware instruments handlers with request count and latency.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
