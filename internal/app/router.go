// Package app wires configuration, adapters, and the HTTP surface.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/gradeworks/answer-evaluator/internal/adapter/httpserver"
	"github.com/gradeworks/answer-evaluator/internal/adapter/observability"
	"github.com/gradeworks/answer-evaluator/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input means all origins.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(30 * time.Second))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limit grading endpoints
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Post("/v1/evaluations", srv.EvaluateHandler())
		wr.Post("/v1/submissions", srv.SubmissionHandler())
	})

	// Read-only endpoints
	r.Get("/v1/evaluations", srv.ListEvaluationsHandler())
	r.Get("/v1/evaluations/{id}", srv.GetEvaluationHandler())
	r.Get("/v1/questions", srv.ListQuestionsHandler())
	r.Get("/v1/questions/{id}", srv.GetQuestionHandler())

	// Reviewer and catalog mutations require admin credentials when
	// configured.
	r.Group(func(ar chi.Router) {
		if cfg.AdminEnabled() {
			ar.Use(srv.AdminGuard())
		}
		ar.Patch("/v1/evaluations/{id}/status", srv.UpdateStatusHandler())
		ar.Post("/v1/questions", srv.CreateQuestionHandler())
		ar.Put("/v1/questions/{id}", srv.UpdateQuestionHandler())
		ar.Delete("/v1/questions/{id}", srv.DeleteQuestionHandler())
	})

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(r)
}
