package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Veraticus/reckless-spender/internal/api/middleware"
)

const shutdownTimeout = 10 * time.Second

// Server runs the router until its context is cancelled.
type Server struct {
	httpServer *http.Server
	limiter    *middleware.RateLimiter
}

// NewServer creates a server listening on addr.
func NewServer(addr string, cfg Config) *Server {
	if cfg.Limiter == nil {
		cfg.Limiter = middleware.NewRateLimiter(100, 20)
	}
	return &Server{
		limiter: cfg.Limiter,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.limiter.Cleanup(cleanupCtx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("store server listening", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down store server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
