// Package resilience guards upstream HTTP calls with a circuit breaker and
// optional retries, and tracks upstream health for the ops endpoints.
package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig controls when an upstream is considered down.
type BreakerConfig struct {
	// TripAfter is the number of consecutive failures that opens the circuit.
	TripAfter uint32

	// OpenFor is how long the circuit stays open before a probe is let through.
	OpenFor time.Duration

	// Probes is the number of requests allowed while half-open.
	Probes uint32
}

// DefaultBreakerConfig opens the circuit after five straight failures and
// probes again after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		TripAfter: 5,
		OpenFor:   30 * time.Second,
		Probes:    1,
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	d := DefaultBreakerConfig()
	if c.TripAfter == 0 {
		c.TripAfter = d.TripAfter
	}
	if c.OpenFor == 0 {
		c.OpenFor = d.OpenFor
	}
	if c.Probes == 0 {
		c.Probes = d.Probes
	}
	return c
}

func newBreaker(name string, cfg BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	cfg = cfg.withDefaults()

	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.Probes,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripAfter
		},
		// A caller giving up says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			event := log.Warn()
			if to == gobreaker.StateClosed {
				event = log.Info()
			}
			event.
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit state changed")
		},
	})
}
