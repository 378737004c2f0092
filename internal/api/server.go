// Package api provides the HTTP API server and handlers for the Ludoteca catalog.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/renovatuludoteca/ludoteca-server/internal/auth"
	"github.com/renovatuludoteca/ludoteca-server/internal/store"
	"github.com/renovatuludoteca/ludoteca-server/internal/validation"
)

// Options tunes the HTTP surface.
type Options struct {
	Version     string
	CORSOrigins []string
	SyncRPS     float64
	SyncBurst   int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.CatalogStore
	services        *Services
	tokens          *auth.TokenService
	validator       *validation.Validator
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	syncRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.CatalogStore, services *Services, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		store:           st,
		services:        services,
		tokens:          tokens,
		validator:       validation.New(),
		router:          chi.NewRouter(),
		logger:          logger,
		syncRateLimiter: NewRateLimiter(opts.SyncRPS, opts.SyncBurst),
	}

	s.setupMiddleware(opts.CORSOrigins)

	s.api = humachi.New(s.router, newHumaConfig(opts.Version))
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerCatalogRoutes()
	s.registerAdminRoutes()

	return s
}

func newHumaConfig(version string) huma.Config {
	cfg := huma.DefaultConfig("Ludoteca API", version)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	return cfg
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.syncRateLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(corsOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(corsOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	s.router.Use(authMiddleware(s.tokens))
}
