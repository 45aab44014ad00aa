// Package httpapi exposes the engine's read-only operational surface:
// /healthz and /metrics. Everything else (request sanitization, API-key
// validation, CORS, payload-shape adaptation) belongs to the excluded
// boundary layer per the engine's scope — this server only ever reads
// state, never accepts a decide call. Grounded on the teacher's
// internal/interfaces/http/server.go (mux.Router, middleware chain,
// request-ID header, graceful Start/Shutdown).
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/riskgate/internal/admission"
)

// HealthProvider and MetricsProvider are satisfied by the composition root
// (cmd/riskgate); kept as interfaces so this package never imports engine
// wiring directly.
type HealthProvider interface {
	Health() admission.HealthView
}

type MetricsProvider interface {
	MetricsSnapshot() admission.MetricsView
}

// PrometheusProvider exposes the private registry C9's collectors are
// registered against, so it can be mounted in Prometheus exposition format
// alongside the bit-exact JSON MetricsView (SPEC_FULL §3).
type PrometheusProvider interface {
	PrometheusRegistry() *prometheus.Registry
}

type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func DefaultConfig(port int) Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the read-only mux.Router-backed HTTP surface for health/metrics.
type Server struct {
	router  *mux.Router
	server  *http.Server
	health  HealthProvider
	metrics MetricsProvider
	prom    PrometheusProvider
	config  Config
}

func NewServer(config Config, health HealthProvider, metrics MetricsProvider, prom PrometheusProvider) *Server {
	router := mux.NewRouter()

	s := &Server{router: router, health: health, metrics: metrics, prom: prom, config: config}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	if s.prom != nil {
		s.router.Handle("/metrics/prom", promhttp.HandlerFor(s.prom.PrometheusRegistry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type requestIDKey struct{}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("elapsed", time.Since(start)).
			Msg("httpapi request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	view := s.health.Health()
	writeJSON(w, statusCodeFor(view.Status), view)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.MetricsSnapshot())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func statusCodeFor(status admission.Status) int {
	if status == admission.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("httpapi: failed to encode response")
	}
}

// Start begins serving. Blocks until the server stops or errors.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting read-only health/metrics server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
