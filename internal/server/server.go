// Package server exposes packing, scroll simulation and anchor storage over
// HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /api/v1/layouts          pack and render a manifest, store the layout
//	GET    /api/v1/layouts/{id}     fetch a stored layout
//	POST   /api/v1/windows          run a scroll script, optionally anchored
//	GET    /api/v1/anchors/{id}     fetch a saved anchor
//	DELETE /api/v1/anchors/{id}     delete a saved anchor
//
// Every request gets its own engine, so the server holds no per-session
// layout state beyond the anchor and document stores.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/spangrid/pkg/observability"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/session"
	"github.com/matzehuels/spangrid/pkg/storage"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 8 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 15 * time.Second

// Config configures a Server.
type Config struct {
	Addr      string
	Timeout   time.Duration // per-request timeout; 0 disables it
	AnchorTTL time.Duration // expiry of anchors written by /windows; 0 never expires

	// Counters, when set, are reported by /healthz.
	Counters *observability.Counters
}

// Server serves the HTTP API.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	docs    storage.Store
	anchors session.Store
	logger  *log.Logger
}

// New creates a server. A nil docs store keeps documents in memory; with a
// nil anchors store the anchor routes answer 501.
func New(cfg Config, runner *pipeline.Runner, docs storage.Store, anchors session.Store, logger *log.Logger) *Server {
	if docs == nil {
		docs = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, runner: runner, docs: docs, anchors: anchors, logger: logger}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.cfg.Timeout > 0 {
		r.Use(middleware.Timeout(s.cfg.Timeout))
	}
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/layouts", s.handleCreateLayout)
		r.Get("/layouts/{id}", s.handleGetLayout)
		r.Delete("/layouts/{id}", s.handleDeleteLayout)
		r.Post("/windows", s.handleWindows)
		r.Get("/anchors/{id}", s.handleGetAnchor)
		r.Delete("/anchors/{id}", s.handleDeleteAnchor)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestLogger logs one line per request through charm log.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
