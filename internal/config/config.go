// Package config loads server configuration from the environment, an
// optional .env file and an optional weatherdesk.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no weatherapi.com key is configured.
var ErrMissingAPIKey = errors.New("WEATHER_API_KEY is required")

// Config holds the server configuration.
type Config struct {
	WeatherAPIKey     string        `mapstructure:"weather_api_key"`
	WeatherAPIBaseURL string        `mapstructure:"weather_api_base_url"`
	WeatherAPITimeout time.Duration `mapstructure:"weather_api_timeout"`

	// Circuit breaker for the weather upstream.
	BreakerTripAfter uint32        `mapstructure:"weather_api_breaker_trip_after"`
	BreakerOpenFor   time.Duration `mapstructure:"weather_api_breaker_open_for"`

	Port     string `mapstructure:"app_port"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	OTelEnabled  bool    `mapstructure:"otel_enabled"`
	OTLPEndpoint string  `mapstructure:"otel_exporter_otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"otel_traces_sample_ratio"`

	OpsJWTSigningKey string        `mapstructure:"ops_jwt_signing_key"`
	OpsJWTIssuer     string        `mapstructure:"ops_jwt_issuer"`
	OpsJWTAudience   string        `mapstructure:"ops_jwt_audience"`
	OpsJWTTTL        time.Duration `mapstructure:"ops_jwt_ttl"`

	RequireTLS         bool     `mapstructure:"require_tls"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Options controls where configuration is read from.
type Options struct {
	// ConfigFile is an explicit YAML file. When empty, weatherdesk.yaml is
	// looked up in the working directory and /etc/weatherdesk.
	ConfigFile string

	// DotEnvFile is loaded into the environment if it exists.
	// Default: .env
	DotEnvFile string
}

var defaults = map[string]interface{}{
	"weather_api_key":                "",
	"weather_api_base_url":           "https://api.weatherapi.com",
	"weather_api_timeout":            10 * time.Second,
	"weather_api_breaker_trip_after": 5,
	"weather_api_breaker_open_for":   30 * time.Second,
	"app_port":                       "8080",
	"app_env":                        "development",
	"log_level":                      "info",
	"otel_enabled":                   false,
	"otel_exporter_otlp_endpoint":    "localhost:4317",
	"otel_traces_sample_ratio":       1.0,
	"ops_jwt_signing_key":            "",
	"ops_jwt_issuer":                 "weatherdesk",
	"ops_jwt_audience":               "weatherdesk-ops",
	"ops_jwt_ttl":                    time.Hour,
	"require_tls":                    false,
	"cors_allowed_origins":           []string{"*"},
}

// Load reads the configuration. Environment variables take precedence over
// the YAML file, which takes precedence over defaults.
func Load(opts Options) (*Config, error) {
	dotEnv := opts.DotEnvFile
	if dotEnv == "" {
		dotEnv = ".env"
	}
	if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", dotEnv, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("weatherdesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/weatherdesk")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WeatherAPIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.WeatherAPITimeout <= 0 {
		return fmt.Errorf("WEATHER_API_TIMEOUT must be positive, got %s", c.WeatherAPITimeout)
	}
	if c.BreakerTripAfter == 0 {
		return errors.New("WEATHER_API_BREAKER_TRIP_AFTER must be at least 1")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
