// Package httpserv exposes optional health, progress, and metrics endpoints
// for long batch runs. The server is off unless a metrics address is
// configured; the pipelines themselves never touch the network.
package httpserv

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the run has made observable progress.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ProgressSnapshot is one pipeline's file counts at a point in time.
type ProgressSnapshot struct {
	Total  int `json:"total"`
	Done   int `json:"done"`
	Failed int `json:"failed"`
}

// ProgressFunc returns the current per-pipeline progress, keyed by pipeline
// name. It is polled on every GET /progress.
type ProgressFunc func() map[string]ProgressSnapshot

// Server exposes the run's HTTP endpoints:
//
//	GET /healthz   liveness
//	GET /readyz    readiness (first file completed)
//	GET /progress  per-pipeline file counts
//	GET /metrics   Prometheus metrics
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the endpoint set. progress may be nil, in which case
// /progress reports an empty object.
func NewServer(addr string, ready ReadinessChecker, progress ProgressFunc, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /progress", handleProgress(progress))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("metrics server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleProgress(progress ProgressFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snapshot := map[string]ProgressSnapshot{}
		if progress != nil {
			snapshot = progress()
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
