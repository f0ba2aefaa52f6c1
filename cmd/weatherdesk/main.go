// Package main provides the entrypoint for the weatherdesk server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdesk/weatherdesk/internal/api"
	"github.com/weatherdesk/weatherdesk/internal/api/middleware"
	"github.com/weatherdesk/weatherdesk/internal/auth"
	"github.com/weatherdesk/weatherdesk/internal/config"
	"github.com/weatherdesk/weatherdesk/internal/provider/resilience"
	"github.com/weatherdesk/weatherdesk/internal/render"
	"github.com/weatherdesk/weatherdesk/internal/telemetry"
	"github.com/weatherdesk/weatherdesk/internal/weather"
	"github.com/weatherdesk/weatherdesk/internal/weather/weatherapi"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "weatherdesk"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load(config.Options{ConfigFile: os.Getenv("WEATHERDESK_CONFIG")})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(cfg.Level())

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.OpsJWTSigningKey,
		Issuer:     cfg.OpsJWTIssuer,
		Audience:   cfg.OpsJWTAudience,
		TTL:        cfg.OpsJWTTTL,
	})

	// "weatherdesk token <subject>" prints an operator token and exits
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(jwtService, os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("failed to issue operator token")
		}
		return
	}

	if err := run(cfg, jwtService, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func printToken(jwtService *auth.JWTService, args []string) error {
	subject := "operator"
	if len(args) > 0 && args[0] != "" {
		subject = args[0]
	}

	token, expiresAt, err := jwtService.GenerateAccessToken(subject)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stdout, "%s\n# expires %s\n", token, expiresAt.Format(time.RFC3339))
	return err
}

func run(cfg *config.Config, jwtService *auth.JWTService, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting weatherdesk")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.OTelEnabled,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRatio:    cfg.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		return fmt.Errorf("initializing provider metrics: %w", err)
	}

	if cfg.OpsJWTSigningKey == "" {
		log.Warn().Msg("OPS_JWT_SIGNING_KEY not set - /v1/ops/status will reject every request")
	}
	if cfg.IsProduction() && !cfg.RequireTLS {
		log.Warn().Msg("REQUIRE_TLS is off in production - forwarded plain-HTTP requests are served")
	}

	// Weather provider behind the circuit breaker, single attempt per lookup
	registry := resilience.NewRegistry()
	httpCfg := resilience.DefaultClientConfig(weatherapi.ProviderName)
	httpCfg.Timeout = cfg.WeatherAPITimeout
	httpCfg.Breaker = resilience.BreakerConfig{
		TripAfter: cfg.BreakerTripAfter,
		OpenFor:   cfg.BreakerOpenFor,
	}
	httpCfg.Registry = registry
	httpCfg.Logger = log.With().Str("component", "resilience").Logger()

	client := weatherapi.NewClient(weatherapi.ClientConfig{
		APIKey:     cfg.WeatherAPIKey,
		BaseURL:    cfg.WeatherAPIBaseURL,
		HTTPClient: resilience.NewClient(httpCfg),
		Logger:     log.With().Str("component", "weatherapi").Logger(),
	})

	display := render.NewDisplay()
	service := weather.NewService(weather.ServiceConfig{
		Provider: client,
		Renderer: display,
		Logger:   log.With().Str("component", "weather").Logger(),
		Metrics:  providerMetrics,
		Health:   registry,
	})
	log.Info().
		Str("base_url", cfg.WeatherAPIBaseURL).
		Msg("weather service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		RequireTLS:     cfg.RequireTLS,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		WeatherService: service,
		Display:        display,
		Providers:      registry,
		TokenValidator: jwtService,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
