// ABOUTME: HTTP API server for the fault diagnosis engine
// ABOUTME: chi router wiring diagnose/ingest/listing endpoints with graceful shutdown
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/ingest"
	"github.com/harper/faultfinder/internal/query"
	"github.com/harper/faultfinder/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	SnapshotPath string
	DefaultTopK  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes the engine over HTTP. Ingestion runs are serialized by
// ingestMu (single writer); queries run concurrently.
type Server struct {
	cfg      Config
	engine   *query.Engine
	pipeline *ingest.Pipeline
	store    *store.Store
	index    *index.Index
	logger   *zap.Logger
	router   chi.Router
	ingestMu sync.Mutex
}

// New creates a Server with all routes registered.
func New(cfg Config, engine *query.Engine, pipeline *ingest.Pipeline, st *store.Store, ix *index.Index, logger *zap.Logger) *Server {
	if cfg.DefaultTopK < 1 {
		cfg.DefaultTopK = 10
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		engine:   engine,
		pipeline: pipeline,
		store:    st,
		index:    ix,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/components", s.handleComponents)
	r.Get("/models", s.handleModels)
	r.Post("/diagnose", s.handleDiagnose)
	r.Post("/ingest", s.handleIngest)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the underlying http.Handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
