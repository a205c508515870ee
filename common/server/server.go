package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fnhub/ingest/common/logger"
)

// Server wraps HTTP server with graceful shutdown
type Server struct {
	httpServer      *http.Server
	log             *logger.Logger
	name            string
	shutdownTimeout time.Duration
}

// New creates a new server
func New(name string, port int, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log:             log,
		name:            name,
		shutdownTimeout: 30 * time.Second,
	}
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info(fmt.Sprintf("%s starting", s.name), "addr", ln.Addr().String())
		serverErrors <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		s.log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("graceful shutdown failed", "error", err)
			if err := s.httpServer.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}

		s.log.Info("shutdown complete")
	}

	return nil
}
