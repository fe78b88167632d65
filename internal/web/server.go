// Package web wires the HTTP server: routes, middleware and the SSE chat
// endpoint.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/scrollab/askdocs/internal/log"
	"github.com/scrollab/askdocs/internal/web/handlers"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr     string
	Answerer handlers.Answerer
	Pinger   handlers.Pinger // optional; nil skips the database health check
	Logger   log.Logger

	// RatePerSecond and RateBurst bound each client IP's request rate.
	// A non-positive rate disables limiting.
	RatePerSecond float64
	RateBurst     int
	TrustProxy    bool
}

// Server serves the question-answering API.
type Server struct {
	httpServer *http.Server
	logger     log.Logger
}

// NewServer builds the server with its middleware chain.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Answerer == nil {
		return nil, errors.New("answerer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", handlers.NewChat(cfg.Answerer, cfg.Logger))
	mux.Handle("GET /health", handlers.NewHealth(cfg.Pinger))

	var handler http.Handler = mux
	if cfg.RatePerSecond > 0 {
		limiter := newRateLimiter(cfg.RatePerSecond, cfg.RateBurst)
		handler = rateLimitMiddleware(limiter, cfg.TrustProxy, cfg.Logger)(handler)
	}
	handler = recoveryMiddleware(cfg.Logger)(handler)
	handler = loggingMiddleware(cfg.Logger)(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// Answer streams stay open while the model generates, so the
			// write timeout must cover a full generation.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		logger: cfg.Logger,
	}, nil
}

// Handler exposes the middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until the context is canceled or the listener
// fails, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
