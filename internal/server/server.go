// Package server provides the HTTP API for wavekb.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/config"
	"github.com/hyperjump/wavekb/internal/knowledge"
)

// DirectoryLister reports the directories being ingested.
type DirectoryLister interface {
	Directories() []string
}

// Server is the HTTP server for the knowledge API.
type Server struct {
	engine *knowledge.Engine
	config *config.Config
	logger *zap.Logger
	ingest DirectoryLister
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithIngest exposes the ingest watcher's directories on /status.
func WithIngest(d DirectoryLister) Option {
	return func(s *Server) { s.ingest = d }
}

// NewServer creates a server over engine.
func NewServer(engine *knowledge.Engine, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{engine: engine, config: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Route("/knowledge", func(r chi.Router) {
		r.Post("/", s.handleInsert)
		r.Get("/", s.handleList)
		r.Post("/search", s.handleSearch)
		r.Post("/absorb", s.handleAbsorb)
		r.Post("/snapshot", s.handleSnapshot)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleDelete)
	})
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
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
