package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
)

const shutdownTimeout = 30 * time.Second

// Server owns the HTTP listener and the detached job runner.
type Server struct {
	http   *http.Server
	jobs   *Detached
	logger *slog.Logger
}

// NewServer wraps handler in an http.Server configured from cfg. jobs may
// be nil for variants that never detach work.
func NewServer(cfg model.ServerConfig, handler http.Handler, jobs *Detached, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       120 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		jobs:   jobs,
		logger: logger,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully and waits
// for detached jobs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.jobs != nil {
		go s.logJobErrors()
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		serveErr <- s.http.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if s.jobs != nil {
		if err := s.jobs.Wait(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) logJobErrors() {
	failed := 0
	for je := range s.jobs.Errors() {
		failed++
		s.logger.Error("detached job failed",
			"job", je.Job,
			"error", je.Err,
			"failed_total", failed,
		)
	}
}
