// Package health serves health, readiness and metrics endpoints for the scheduler
// daemon over HTTP and the standard gRPC health protocol.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Checker reports whether a dependency is reachable
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

// Ping calls f
func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	NextRun   string `json:"next_run,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName    string
	Version        string
	Commit         string
	Port           int
	GRPCPort       int
	MetricsPath    string
	MetricsHandler http.Handler
	Logger         *logrus.Logger
	Checks         map[string]Checker
	NextRun        func() time.Time
}

// Server serves the health endpoints
type Server struct {
	cfg    Config
	logger *logrus.Entry
	router chi.Router
	http   *http.Server
	grpc   *grpc.Server
	status *grpchealth.Server

	mu    sync.RWMutex
	ready bool

	stopOnce sync.Once
	stopErr  error
}

// NewServer creates a new health server; it serves nothing until Start
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.WithField("component", "health"),
		status: grpchealth.NewServer(),
	}
	s.status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Get("/health", s.handleHealth)
	r.Get("/live", s.handleLive)
	r.Get("/ready", s.handleReady)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, cfg.MetricsPath, cfg.MetricsHandler)
	}
	s.router = r
	return s
}

// Handler returns the HTTP router
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReady marks the service ready and updates the gRPC serving status
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.status.SetServingStatus("", status)
	s.status.SetServingStatus(s.cfg.ServiceName, status)
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves HTTP and, when a gRPC port is configured, gRPC health in the
// background until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	httpLn, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen for health http: %w", err)
	}

	s.http = &http.Server{
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":    s.cfg.Port,
			"service": s.cfg.ServiceName,
		}).Info("Health check server starting")
		if err := s.http.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Health check server error")
		}
	}()

	if s.cfg.GRPCPort > 0 {
		grpcLn, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.GRPCPort))
		if err != nil {
			s.http.Close()
			return fmt.Errorf("failed to listen for health grpc: %w", err)
		}
		s.grpc = grpc.NewServer()
		healthpb.RegisterHealthServer(s.grpc, s.status)

		go func() {
			s.logger.WithField("port", s.cfg.GRPCPort).Info("gRPC health server starting")
			if err := s.grpc.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				s.logger.WithError(err).Error("gRPC health server error")
			}
		}()
	}

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
	return nil
}

// Shutdown gracefully stops both servers; later calls return the first result
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.shutdown()
	})
	return s.stopErr
}

func (s *Server) shutdown() error {
	s.status.Shutdown()
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	if s.http == nil {
		return nil
	}

	s.logger.Info("Health check server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// handleHealth handles the /health endpoint - basic liveness check with build info.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
	}
	if s.cfg.NextRun != nil {
		if next := s.cfg.NextRun(); !next.IsZero() {
			response.NextRun = next.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: s.cfg.ServiceName})
}

// handleReady handles the /ready endpoint - checks every registered dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	names := make([]string, 0, len(s.cfg.Checks))
	for name := range s.cfg.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		err := s.cfg.Checks[name].Ping(ctx)
		cancel()
		if err != nil {
			allHealthy = false
			checks[name] = fmt.Sprintf("error: %v", err)
		} else {
			checks[name] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.cfg.ServiceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	status := http.StatusOK
	response.Status = "ok"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		response.Status = "not_ready"
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
