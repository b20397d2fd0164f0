// Package server builds the chi router and owns the HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ragline/internal/config"
	"ragline/internal/handlers"
	"ragline/internal/middleware"
	"ragline/pkg/logx"
)

type Server struct {
	http   *http.Server
	logger *logx.Logger
}

func New(cfg *config.Config, h *handlers.Handler) *Server {
	r := chi.NewRouter()

	r.Use(middleware.InjectTrace)
	r.Use(middleware.Metrics)
	r.Use(middleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	r.Get("/health", h.Health)
	r.Post("/query", h.Query)
	r.Post("/relevant-docs", h.RelevantDocs)
	r.Post("/ingest", h.IngestUpload)
	r.Post("/ingest/text", h.IngestTexts)
	r.Get("/stats", h.Stats)
	r.Delete("/documents", h.Clear)
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         cfg.ListenAddr(),
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: logx.New("server"),
	}
}

// ListenAndServe blocks until the server stops. A closed-server error
// after Shutdown is not a failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	s.http.SetKeepAlivesEnabled(false)
	return s.http.Shutdown(ctx)
}
