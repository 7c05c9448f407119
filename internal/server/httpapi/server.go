// Package httpapi exposes the authentication service over HTTP JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/manis-auth/manis/internal/logging"
	"github.com/manis-auth/manis/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// Server wraps an http.Server with the service routes mounted.
type Server struct {
	addr       string
	logger     logging.Logger
	httpServer *http.Server
}

func NewServer(addr string, logger logging.Logger, service *services.AuthService) *Server {
	h := &handler{logger: logger, service: service}

	router := httprouter.New()
	router.Handler(http.MethodPost, "/api/manis/get", http.HandlerFunc(h.signIn))
	router.Handler(http.MethodPost, "/api/manis/post", http.HandlerFunc(h.register))
	router.Handler(http.MethodGet, "/api/ping", http.HandlerFunc(h.ping))

	return &Server{
		addr:   addr,
		logger: logger,
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

// Handler exposes the mounted routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "starting HTTP server", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info(ctx, "shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
