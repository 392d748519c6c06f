package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"sentinel-hq/ceres/pkg/config"
	"sentinel-hq/ceres/pkg/dispatcher"
	"sentinel-hq/ceres/pkg/escalation"
)

// Server is the HTTP front of the validation gateway.
type Server struct {
	config       config.ServerConfig
	dispatcher   *dispatcher.Dispatcher
	escalator    *escalation.Coordinator
	metrics      MetricsHandler
	metricsPath  string
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// MetricsHandler exposes the Prometheus registry over HTTP.
type MetricsHandler interface {
	Handler() http.Handler
}

// Options configures optional server surfaces.
type Options struct {
	// Metrics mounts the exposition handler when non-nil.
	Metrics MetricsHandler

	// MetricsPath is where the metrics handler is mounted.
	// Default: "/metrics"
	MetricsPath string

	// Logger for server events. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewServer creates the gateway HTTP server.
func NewServer(cfg config.ServerConfig, d *dispatcher.Dispatcher, esc *escalation.Coordinator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &Server{
		config:      cfg,
		dispatcher:  d,
		escalator:   esc,
		metrics:     opts.Metrics,
		metricsPath: metricsPath,
		logger:      logger.With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting validation gateway",
			"address", s.config.ListenAddress,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight decisions.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("validation gateway stopped")
	})

	return shutdownErr
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/v1/validate", &ValidateHandler{Dispatcher: s.dispatcher, Logger: s.logger})
	mux.Handle("/v1/answers", &AnswerHandler{Escalator: s.escalator, Logger: s.logger})
	mux.Handle("/healthz", &HealthHandler{})
	if s.metrics != nil {
		mux.Handle(s.metricsPath, s.metrics.Handler())
	}

	return mux
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
