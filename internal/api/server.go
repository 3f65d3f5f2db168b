// Package api provides the HTTP server for the MMSS engine. It exposes the
// task lifecycle, the metrics snapshot, and the free-text query gateway as
// a JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmss-network/mmss/internal/app/processor"
	"github.com/mmss-network/mmss/internal/app/ruleengine"
	"github.com/mmss-network/mmss/internal/health"
	"github.com/mmss-network/mmss/internal/infra/llm"
)

// Server is the MMSS HTTP API server.
type Server struct {
	proc           *processor.Processor
	rules          *ruleengine.Engine
	gateway        *llm.Gateway    // nil when no API key is configured
	checker        *health.Checker // nil when background checks are off
	metricsEnabled bool
}

// NewServer creates a new API server over a processor and a rule engine.
func NewServer(proc *processor.Processor, rules *ruleengine.Engine) *Server {
	return &Server{proc: proc, rules: rules}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetGateway attaches the LLM query gateway.
func (s *Server) SetGateway(g *llm.Gateway) { s.gateway = g }

// SetHealthChecker attaches the background health checker; /health then
// reports its per-check results.
func (s *Server) SetHealthChecker(c *health.Checker) { s.checker = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status": "MMSS is running",
			})
		})

		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTaskStatus)

		r.Get("/metrics", s.handleGetMetrics)
		r.Get("/metrics/vector", s.handleGetVectorizedMetrics)

		r.Post("/query", s.handleQuery)
		r.Get("/visualization", s.handleVisualization)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if s.checker != nil {
		body["checks"] = s.checker.Statuses()
		if !s.checker.IsHealthy() {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, body)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds permissive CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
