package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the listen address and timeouts used when nothing is configured
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    0, // Event streams stay open for the life of a game
		ShutdownTimeout: 30 * time.Second,
	}
}

// BackgroundJob runs alongside the server, like the auto-draw moderator
type BackgroundJob interface {
	Start() error
	Stop() error
}

// StreamCloser ends long-lived event streams so shutdown does not wait on them
type StreamCloser interface {
	Close()
}

// Server runs the HTTP API together with the jobs and streams that share its lifetime
type Server struct {
	server  *http.Server
	logger  *slog.Logger
	config  ServerConfig
	jobs    []BackgroundJob
	streams StreamCloser
}

// NewServer creates a server for handler. streams may be nil.
func NewServer(handler http.Handler, config ServerConfig, logger *slog.Logger, streams StreamCloser, jobs ...BackgroundJob) *Server {
	return &Server{
		server: &http.Server{
			Addr:         config.Addr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		logger:  logger,
		config:  config,
		jobs:    jobs,
		streams: streams,
	}
}

// Run listens until ctx is cancelled or the listener fails, then shuts down.
// Jobs start before the first request is accepted. On the way out, event
// streams are closed first, then in-flight requests drain, then jobs stop.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	started := 0
	for _, job := range s.jobs {
		if err := job.Start(); err != nil {
			_ = ln.Close()
			s.stopJobs(started)
			return fmt.Errorf("start background job: %w", err)
		}
		started++
	}

	s.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
	}

	if s.streams != nil {
		s.streams.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("shutdown error: %w", err)
	}

	if err := s.stopJobs(started); err != nil && serveErr == nil {
		serveErr = err
	}

	s.logger.Info("HTTP server stopped")
	return serveErr
}

// stopJobs stops the first n jobs in reverse start order
func (s *Server) stopJobs(n int) error {
	var errs []error
	for i := n - 1; i >= 0; i-- {
		if err := s.jobs[i].Stop(); err != nil {
			s.logger.Error("failed to stop background job", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.server.Addr
}
