package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dentalcare/aftercare/internal/config"
)

// minWriteTimeout bounds handlers that do not wait on generation.
const minWriteTimeout = 15 * time.Second

type Server struct {
	httpServer *http.Server
}

// New creates a Server. The write timeout leaves room for a full generation
// call of inferenceTimeout plus retrieval.
func New(cfg config.ServerConfig, handler http.Handler, inferenceTimeout time.Duration) *Server {
	writeTimeout := inferenceTimeout + 30*time.Second
	if writeTimeout < minWriteTimeout {
		writeTimeout = minWriteTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully and
// calls onShutdown so background consumers can stop.
func (s *Server) Start(onShutdown func()) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", s.httpServer.Addr, "write_timeout", s.httpServer.WriteTimeout)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig)
	}

	if onShutdown != nil {
		onShutdown()
	}

	// In-flight answers may still be waiting on generation.
	ctx, cancel := context.WithTimeout(context.Background(), s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
