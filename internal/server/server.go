// Package server provides the HTTP API for kura.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kura/internal/config"
	"github.com/hyperjump/kura/internal/models"
	"github.com/hyperjump/kura/internal/retrieval"
)

// Server is the HTTP server for the kura API.
type Server struct {
	store  *retrieval.Store
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server over store listening on the configured host and port.
func NewServer(store *retrieval.Store, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  store,
		config: cfg,
		logger: logger,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Post("/api/v1/search", s.handleSearch)
		r.Post("/api/v1/answer", s.handleAnswer)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
	})
	// Rebuilds embed the whole corpus and are not bound by the request timeout.
	r.Post("/api/v1/rebuild", s.handleRebuild)
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed, also when Stop ran first.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Rebuild builds the index from the configured document directory and saves it.
func (s *Server) Rebuild(ctx context.Context) (*models.BuildReport, error) {
	return s.store.LoadOrBuild(ctx, retrieval.LoadOrBuildOptions{
		IndexDir:  s.config.Storage.IndexDir,
		DocDir:    s.config.Documents.Directory,
		ChunkSize: s.config.Chunking.Size,
		Overlap:   s.config.Chunking.Overlap,
		Force:     true,
	})
}
