package weather

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for the current-conditions API.
type Provider interface {
	// Current fetches current conditions for a city name.
	Current(ctx context.Context, city string, aqi AqiChoice) (*Raw, error)

	// Name returns the provider name for logging.
	Name() string
}

// Renderer replaces the displayed output with a new result. It returns
// false when seq is older than what is already on display.
type Renderer interface {
	ClearAndRender(seq uint64, result DisplayResult, aqi AqiChoice) bool
}

// RequestRecorder records provider call metrics.
type RequestRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// HealthRecorder tracks provider success and failure.
type HealthRecorder interface {
	RecordSuccess(name string)
	RecordFailure(name string, err error)
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Renderer receives each successful result.
	Renderer Renderer

	// Logger is the diagnostic channel for failed lookups.
	Logger zerolog.Logger

	// Metrics is optional.
	Metrics RequestRecorder

	// Health is optional.
	Health HealthRecorder
}

// Service runs one lookup per form submission: fetch, transform, render.
// Nothing is cached between lookups.
type Service struct {
	provider Provider
	renderer Renderer
	logger   zerolog.Logger
	metrics  RequestRecorder
	health   HealthRecorder

	seq atomic.Uint64
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		health:   cfg.Health,
	}
}

// ValidateQuery trims the city name and rejects a blank one.
func ValidateQuery(q Query) (Query, error) {
	q.City = strings.TrimSpace(q.City)
	if q.City == "" {
		return q, ErrValidation
	}
	return q, nil
}

// Lookup fetches current weather for q and hands the result to the renderer.
// A failed fetch or parse is logged and returned; nothing is rendered and the
// previous output stays in place. There is no retry.
func (s *Service) Lookup(ctx context.Context, q Query) (DisplayResult, error) {
	q, err := ValidateQuery(q)
	if err != nil {
		return DisplayResult{}, err
	}

	seq := s.seq.Add(1)
	start := time.Now()

	raw, err := s.provider.Current(ctx, q.City, q.AQI)
	s.record(time.Since(start), err)
	if err != nil {
		event := s.logger.Error().
			Err(err).
			Str("city", q.City).
			Str("aqi", string(q.AQI)).
			Uint64("seq", seq).
			Str("provider", s.provider.Name())

		var fetchErr *FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			event = event.Int("status", fetchErr.StatusCode)
		}
		event.Msg("Error fetching data")

		return DisplayResult{}, err
	}

	result := Transform(raw, q.AQI)

	if s.renderer != nil && !s.renderer.ClearAndRender(seq, result, q.AQI) {
		s.logger.Warn().
			Str("city", q.City).
			Uint64("seq", seq).
			Msg("discarding stale weather result")
	}

	return result, nil
}

func (s *Service) record(d time.Duration, err error) {
	name := s.provider.Name()
	if s.metrics != nil {
		s.metrics.RecordRequest(name, "current", d, err)
	}
	if s.health == nil {
		return
	}
	if err != nil {
		s.health.RecordFailure(name, err)
		return
	}
	s.health.RecordSuccess(name)
}
