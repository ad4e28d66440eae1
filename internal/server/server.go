// Package server assembles the chi HTTP server that fronts the tool
// service: health probes, version info, and the /api/v1 job endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/bioopenmcp/biomcp/internal/errors"
	"github.com/bioopenmcp/biomcp/internal/server/handlers"
	"github.com/bioopenmcp/biomcp/internal/server/middleware"
	"github.com/bioopenmcp/biomcp/pkg/fastq"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

// Timeouts collects the HTTP server deadlines.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

func defaultTimeouts() Timeouts {
	return Timeouts{
		Read:     30 * time.Second,
		Write:    30 * time.Second,
		Idle:     120 * time.Second,
		Shutdown: 10 * time.Second,
	}
}

// Server hosts the REST API.
type Server struct {
	host      string
	port      int
	logger    *zap.Logger
	svc       *tools.Service
	finder    fastq.Finder
	timeouts  Timeouts
	rateLimit float64
	rateBurst int
}

// Option customizes a Server.
type Option func(*Server)

// WithService injects a shared tool service; without it the server
// builds its own registry, which is fine for a standalone HTTP server
// but wrong when the MCP transport must see the same jobs.
func WithService(svc *tools.Service) Option {
	return func(s *Server) { s.svc = svc }
}

// WithFinder injects the FASTQ finder used by /api/v1/fastq.
func WithFinder(f fastq.Finder) Option {
	return func(s *Server) { s.finder = f }
}

// WithLogger injects the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithTimeouts overrides the HTTP deadlines.
func WithTimeouts(t Timeouts) Option {
	return func(s *Server) { s.timeouts = t }
}

// WithRateLimit overrides the request rate budget.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.rateLimit = rps; s.rateBurst = burst }
}

// New builds a server listening on host:port.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:      host,
		port:      port,
		logger:    zap.NewNop(),
		timeouts:  defaultTimeouts(),
		rateLimit: 20,
		rateBurst: 40,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.svc == nil {
		catalog, err := tools.LoadCatalog()
		if err != nil {
			// The catalog is embedded; failure here is a build defect.
			panic(err)
		}
		s.svc = tools.NewService(catalog, jobs.NewRegistry(), s.logger)
	}
	return s
}

// Port returns the configured listen port.
func (s *Server) Port() int { return s.port }

// Handler builds the routed handler with the middleware chain.
func (s *Server) Handler() http.Handler {
	api := handlers.NewAPI(s.svc, s.finder, s.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ErrorHandler)
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.RateLimit(s.rateLimit, s.rateBurst))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, apperrors.CodeNotFound, "resource not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, apperrors.CodeMethodNotAllowed, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/live", handlers.LivenessHandler)
	r.Get("/health/ready", handlers.ReadinessHandler)
	r.Get("/health/startup", handlers.StartupHandler)
	r.Get("/version", handlers.VersionHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/jobs", api.ListJobs)
		r.Post("/jobs/cleanup", api.CleanupJobs)
		r.Get("/jobs/{jobID}", api.JobStatus)
		r.Post("/jobs/{jobID}/stop", api.StopJob)
		r.Delete("/jobs/{jobID}", api.StopJob)
		r.Get("/tools", api.ListTools)
		r.Get("/tools/{tool}", api.ToolStatus)
		r.Post("/tools/{tool}/install", api.InstallTool)
		r.Post("/tools/{tool}/jobs", api.LaunchJob)
		r.Get("/fastq", api.FindFastq)
	})

	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  s.timeouts.Read,
		WriteTimeout: s.timeouts.Write,
		IdleTimeout:  s.timeouts.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func writeEnvelope(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body := apperrors.HTTPErrorResponse{Error: apperrors.HTTPErrorBody{Code: code, Message: message}}
	_ = json.NewEncoder(w).Encode(body)
}
