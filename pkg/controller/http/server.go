package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/spock/pkg/domain/interfaces"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	webhookSecret string
	dispatch      Dispatcher
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret. An empty secret disables
// signature verification.
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithDispatcher replaces the function used to run event handling in the
// background
func WithDispatcher(d Dispatcher) Option {
	return func(c *config) {
		c.dispatch = d
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	eventUC interfaces.EventUseCase,
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

	// CMS event endpoints
	webhookHandler := NewWebhookHandler(cfg.webhookSecret, eventUC, cfg.dispatch)
	router.Post("/hooks/published", webhookHandler.Handle(model.EventTypePublished))
	router.Post("/hooks/asset-uploaded", webhookHandler.Handle(model.EventTypeAssetUploaded))

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
