// Package api provides the HTTP surface for weatherdesk.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/weatherdesk/weatherdesk/internal/api/handler"
	"github.com/weatherdesk/weatherdesk/internal/api/middleware"
	"github.com/weatherdesk/weatherdesk/internal/api/response"
	"github.com/weatherdesk/weatherdesk/internal/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	// AllowedOrigins lists the origins allowed to call /v1 from a browser.
	AllowedOrigins []string

	WeatherService handler.WeatherService
	Display        handler.DisplaySource
	Providers      handler.ProviderHealthSource
	TokenValidator middleware.TokenValidator
}

// NewRouter creates a new chi router with all routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "weatherdesk"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement

	formHandler := handler.NewFormHandler(cfg.WeatherService, cfg.Display, cfg.Logger)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Providers, cfg.Logger)

	// Without a validator every operator request is rejected
	validator := cfg.TokenValidator
	if validator == nil {
		validator = auth.NewJWTService(auth.JWTConfig{})
	}
	authMiddleware := middleware.Auth(validator)
	lookupRateLimit := middleware.RateLimitByIP(middleware.LookupRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// Form page
	r.With(standardRateLimit).Get("/", formHandler.Page)
	r.With(lookupRateLimit).Post("/weather", formHandler.Submit)

	// JSON API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
		r.Use(middleware.NoStore)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			response.Problem(w, r, http.StatusNotFound, "resource not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			response.Problem(w, r, http.StatusMethodNotAllowed, r.Method+" is not supported here")
		})

		r.With(lookupRateLimit).Get("/weather", weatherHandler.GetWeather)

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires an operator token
			r.With(authMiddleware, middleware.RateLimitByOperator(middleware.StandardRateLimit)).
				Get("/status", opsHandler.SystemStatus)
		})
	})

	return r
}
