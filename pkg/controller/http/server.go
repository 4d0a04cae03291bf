package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/djmitche/mapper/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr      string
	authToken string
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithAuthToken sets the bearer token required on write endpoints
func WithAuthToken(token string) Option {
	return func(c *config) {
		c.authToken = token
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	mapperUC interfaces.MapperUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	handler := NewMapperHandler(mapperUC)

	// Read endpoints; {project} may be a comma-delimited list
	router.Get("/mapfile/full", handler.HandleCombinedMapfile)
	router.Get("/mapfile/since/{since}", handler.HandleCombinedMapfileSince)
	router.Get("/{project}/rev/{vcs}/{changeset}", handler.HandleGetRev)
	router.Get("/{project}/mapfile/full", handler.HandleFullMapfile)
	router.Get("/{project}/mapfile/since/{since}", handler.HandleMapfileSince)

	// Write endpoints require a bearer token
	router.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.authToken))
		r.Post("/{project}", handler.HandleAddProject)
		r.Post("/{project}/insert", handler.HandleInsertMany(false))
		r.Post("/{project}/insert/ignoredups", handler.HandleInsertMany(true))
		r.Post("/{project}/insert/{hg_changeset}/{git_changeset}", handler.HandleInsertOne)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
