// Package api provides the HTTP API server and handlers for the Inkwell
// application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	searchIndex *search.Index
	scanner     *scanner.Scanner
	libraryPath string
	limiter     *ratelimit.KeyedRateLimiter
	router      *chi.Mux
	logger      *slog.Logger
}

// Options bundles the server's dependencies.
type Options struct {
	Store       *store.Store
	SearchIndex *search.Index
	Scanner     *scanner.Scanner
	LibraryPath string
	Limiter     *ratelimit.KeyedRateLimiter // may be nil to disable scan throttling
	Logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(opts Options) *Server {
	s := &Server{
		store:       opts.Store,
		searchIndex: opts.SearchIndex,
		scanner:     opts.Scanner,
		libraryPath: opts.LibraryPath,
		limiter:     opts.Limiter,
		router:      chi.NewRouter(),
		logger:      opts.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)
			r.Delete("/{id}", s.handleDeleteBook)
			r.Get("/{id}/chapters", s.handleListChapters)
			r.Get("/{id}/chapters/{index}", s.handleGetChapter)
			r.Get("/{id}/cover", s.handleGetCover)
		})

		r.Get("/search", s.handleSearch)

		r.Route("/library", func(r chi.Router) {
			// Scans are expensive; throttle triggers per client.
			if s.limiter != nil {
				r.Use(RateLimitMiddleware(s.limiter, s.logger))
			}
			r.Post("/scan", s.handleTriggerScan)
			r.Get("/scan", s.handleScanStatus)
		})
	})
}
