package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackmichael/spotreport/internal/config"
	"github.com/blackmichael/spotreport/internal/domain"
)

// Readiness reports whether the database schema is in place.
type Readiness interface {
	Ready() bool
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the report API.
type Server struct {
	cfg        config.ServerConfig
	service    *domain.ReportService
	schema     Readiness
	db         Pinger
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server. db may be nil, in which case
// /health/ready only checks the schema.
func NewServer(cfg config.ServerConfig, service *domain.ReportService, schema Readiness, db Pinger, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		schema:  schema,
		db:      db,
		logger:  logger,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// The classifier may take most of its own timeout to answer.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, including all middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withRequestLogging(s.logger))
	r.Use(withMetrics)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(s.cfg.CORSOrigins))

	r.Get("/", s.handleIndex)
	r.Get("/health/live", s.handleLive)
	r.Get("/health/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(requireReady(s.schema))

		r.Get("/kinds", s.handleListKinds)
		r.Post("/kind", s.handleCreateKind)
		r.Delete("/kind/{name}", s.handleDeleteKind)

		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{id}/img", s.handlePostImage)
		r.Post("/posts/{id}/upvote", s.handleUpvote)

		// Routes that call the classifier.
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow))
			r.Use(maxBody(s.cfg.MaxUploadBytes))

			r.Post("/post", s.handleCreatePost)
			r.Post("/annotate", s.handleAnnotate)
		})
	})

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "spotreport"})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.schema.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "readiness ping failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
