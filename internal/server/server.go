// Package server hosts the web interface shell: routing, per-browser
// sessions, and the JSON API over the tutoring core.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/wardbuddy/wardbuddy/web"
)

// Server is the HTTP server for the tutoring UI and API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the router and server. addr is the listen address.
func New(addr string, handler *Handler, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", handler.Chat)
		r.Put("/preferences", handler.UpdatePreferences)
		r.Post("/session/clear", handler.ClearSession)
		r.Post("/session/retry", handler.RetryLast)
		r.Get("/history", handler.GetHistory)
	})
	r.Get("/healthz", handler.Healthz)
	r.Handle("/*", web.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
