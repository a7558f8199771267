// Package server exposes the pipeline over HTTP: submissions, the current
// results view, the request history, health and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agbru/fibserve/internal/cache"
	apperrors "github.com/agbru/fibserve/internal/errors"
	"github.com/agbru/fibserve/internal/gateway"
	"github.com/agbru/fibserve/internal/history"
	"github.com/agbru/fibserve/internal/logging"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	// maxBodyBytes bounds the submission body. The body is a single small
	// JSON object; anything larger is abuse.
	maxBodyBytes = 1 << 10
)

// Server serves the HTTP API over a request gateway.
type Server struct {
	gateway  *gateway.Gateway
	metrics  *Metrics
	logger   logging.Logger
	security SecurityConfig

	shutdownTimeout time.Duration
}

// Option configures a Server during construction.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSecurityConfig overrides the security middleware configuration.
func WithSecurityConfig(config SecurityConfig) Option {
	return func(s *Server) { s.security = config }
}

// WithShutdownTimeout overrides the graceful shutdown grace period.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New creates a Server over the given gateway.
//
// Parameters:
//   - gw: The request gateway handling submissions and reads.
//   - opts: Optional configuration.
//
// Returns:
//   - *Server: The configured server.
func New(gw *gateway.Gateway, opts ...Option) *Server {
	s := &Server{
		gateway:         gw,
		metrics:         NewMetrics(),
		logger:          logging.Nop{},
		security:        DefaultSecurityConfig(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table with the middleware chain applied.
//
// Returns:
//   - http.Handler: The root handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/values", s.wrap("/values", s.handleValues))
	mux.HandleFunc("/values/current", s.wrap("/values/current", s.handleCurrent))
	mux.HandleFunc("/values/all", s.wrap("/values/all", s.handleAll))
	mux.HandleFunc("/healthz", s.wrap("/healthz", s.handleHealth))
	mux.HandleFunc("/metrics", s.wrap("/metrics", s.handleMetrics))
	return mux
}

// wrap applies the security and metrics middleware to a handler.
func (s *Server) wrap(path string, h http.HandlerFunc) http.HandlerFunc {
	counted := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.CountRequest(path, r.Method)
		h(w, r)
		s.metrics.ObserveRequestDuration(path, time.Since(start).Seconds())
	}
	return SecurityMiddleware(s.security, s.metricsMiddleware(counted))
}

// metricsMiddleware tracks in-flight requests around next.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()
		next(w, r)
	}
}

// ListenAndServe serves the API on addr until ctx is canceled, then shuts
// down gracefully within the configured grace period.
//
// Parameters:
//   - ctx: Controls the server lifetime.
//   - addr: The listen address (host:port).
//
// Returns:
//   - error: A listener or shutdown error; nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logging.String("addr", addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return apperrors.WrapError(err, "http server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.WrapError(err, "http server shutdown")
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return apperrors.WrapError(err, "http server failed")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

// submitRequest is the POST /values body.
type submitRequest struct {
	Index *int64 `json:"index"`
}

// submitResponse is the 202 acknowledgment body.
type submitResponse struct {
	Index int64 `json:"index"`
}

// errorResponse is the JSON body of every error status.
type errorResponse struct {
	Error string `json:"error"`
}

// handleValues accepts index submissions.
func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req submitRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil || req.Index == nil {
		s.metrics.CountSubmission("rejected")
		s.writeError(w, http.StatusBadRequest, "body must be a JSON object with an integer index field")
		return
	}

	if err := s.gateway.Submit(r.Context(), *req.Index); err != nil {
		switch {
		case apperrors.IsValidation(err):
			s.metrics.CountSubmission("rejected")
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		case apperrors.IsStore(err):
			s.metrics.CountSubmission("unavailable")
			s.logger.Error("submission failed", err, logging.Int("index", int(*req.Index)))
			s.writeError(w, http.StatusServiceUnavailable, "a backing store is unavailable")
		default:
			s.metrics.CountSubmission("unavailable")
			s.logger.Error("submission failed", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.metrics.CountSubmission("accepted")
	s.writeJSON(w, http.StatusAccepted, submitResponse{Index: *req.Index})
}

// handleCurrent serves the cache view: index to decimal value, null while
// pending.
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := s.gateway.ListResults(r.Context())
	if err != nil {
		s.logger.Error("listing results failed", err)
		s.writeError(w, http.StatusServiceUnavailable, "the result cache is unavailable")
		return
	}

	view := make(map[string]*string, len(entries))
	for key, entry := range entries {
		if entry.State == cache.StateComputed {
			value := entry.Value
			view[key] = &value
		} else {
			view[key] = nil
		}
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleAll serves the full request history in insertion order.
func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := s.gateway.ListHistory(r.Context())
	if err != nil {
		s.logger.Error("listing history failed", err)
		s.writeError(w, http.StatusServiceUnavailable, "the history store is unavailable")
		return
	}
	if records == nil {
		records = []history.IndexRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleHealth reports liveness plus store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if _, err := s.gateway.ListHistory(ctx); err != nil {
		status["status"] = "degraded"
		status["history"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if _, err := s.gateway.ListResults(ctx); err != nil {
		status["status"] = "degraded"
		status["cache"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

// handleMetrics serves the Prometheus exposition. GET only.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.logger.Debug("rejected non-GET metrics request",
			logging.String("method", r.Method))
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// writeJSON serializes v with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response failed", err)
	}
}

// writeError serializes a JSON error body with the given status.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
