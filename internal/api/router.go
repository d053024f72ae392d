package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/relay/internal/api/middleware"
	"github.com/eldtechnologies/relay/internal/handlers"
	"github.com/eldtechnologies/relay/internal/relay"
)

// Options configures the router.
type Options struct {
	MaxBodySize int64
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, rl *relay.Relay, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(opts.MaxBodySize))

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - allow all origins. Preflights pass through so the relay
	// answers them itself with 204.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:     []string{"*"},
		AllowCredentials:   false,
		MaxAge:             300,
		OptionsPassthrough: true,
	}))

	h := handlers.NewHandler(rl, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	// The relay ignores the path: any GET receives, any POST sends.
	r.Get("/", h.Receive)
	r.Get("/*", h.Receive)
	r.Post("/", h.Send)
	r.Post("/*", h.Send)
	r.Options("/", h.Preflight)
	r.Options("/*", h.Preflight)

	return r
}
