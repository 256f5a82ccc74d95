// Package server provides the HTTP API for Shortlist.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/shortlist/internal/config"
	"github.com/hyperjump/shortlist/internal/pipeline"
	"github.com/hyperjump/shortlist/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Shortlist API.
type Server struct {
	pipeline *pipeline.Pipeline
	store    storage.RunStore
	config   *config.ServerConfig
	appCfg   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. appCfg may be nil;
// it only enriches the status endpoint.
func NewServer(
	pipe *pipeline.Pipeline,
	store storage.RunStore,
	cfg *config.ServerConfig,
	appCfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: pipe,
		store:    store,
		config:   cfg,
		appCfg:   appCfg,
		logger:   logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(300 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/screen", s.handleScreen)
	r.Get("/api/v1/runs", s.handleListRuns)
	r.Get("/api/v1/runs/{id}", s.handleGetRun)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
