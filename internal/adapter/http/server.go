// Package http serves forecasts, trajectories, health, and metrics.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// Forecaster answers forecast and trajectory requests.
type Forecaster interface {
	ForecastCity(ctx context.Context, req domain.ForecastRequest) (domain.ForecastResult, error)
	Trajectory(ctx context.Context, req domain.TrajectoryRequest) (domain.Trajectory, error)
}

// Server exposes the forecast API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	forecaster Forecaster
	timeout    time.Duration
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /forecast, /trajectory, /healthz,
// /readyz, and /metrics routes. timeout bounds each forecast; zero leaves
// requests bounded by the client connection only.
func NewServer(addr string, forecaster Forecaster, ready sharedobs.ReadinessChecker, timeout time.Duration, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: timeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		forecaster: forecaster,
		timeout:    timeout,
		logger:     logger,
	}

	mux.HandleFunc("POST /forecast", s.handleForecast)
	mux.HandleFunc("POST /trajectory", s.handleTrajectory)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
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

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeout)
}

// statusFor maps a forecast failure to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch domain.ErrorKind(err) {
	case domain.KindNotFound, domain.KindNoHistory:
		return http.StatusNotFound
	case domain.KindInsufficientHistory:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	kind := domain.ErrorKind(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "kind", kind, "error", err)
	} else {
		s.logger.Info("request rejected", "path", r.URL.Path, "status", status, "kind", kind, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"kind":    kind,
		"message": err.Error(),
	})
}
