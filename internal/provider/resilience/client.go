package resilience

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without contacting the upstream while its
// circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig holds configuration for the guarded HTTP client.
type ClientConfig struct {
	// Name identifies the upstream in logs, the breaker and the registry.
	Name string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Zero means a single attempt.
	MaxRetries uint64

	// InitialInterval and MaxInterval shape the exponential backoff between
	// retries.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Breaker configures the circuit breaker. Zero fields take defaults.
	Breaker BreakerConfig

	// Registry, if set, has the client registered under Name.
	Registry *Registry

	Logger zerolog.Logger
}

// DefaultClientConfig returns a single-attempt client with a ten second
// timeout. Weather lookups are user driven, so failing fast beats retrying.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Breaker:         DefaultBreakerConfig(),
		Logger:          zerolog.Nop(),
	}
}

// Client is an HTTP client whose calls pass through a circuit breaker.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
}

// NewClient creates a guarded HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}

	client := &Client{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker(cfg.Name, cfg.Breaker, cfg.Logger),
		config:     cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, client)
	}

	return client
}

// Name returns the upstream name.
func (c *Client) Name() string {
	return c.name
}

// Do sends req through the circuit breaker. Transport errors and 5xx
// responses count as failures and are retried when MaxRetries allows. Once
// attempts run out a 5xx response is returned as is so the caller can report
// its status; 4xx responses are returned untouched and never retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var last *http.Response
	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to the caller
			resp, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return resp, &ServerError{StatusCode: resp.StatusCode}
			}
			return resp, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		if resp != nil {
			discard(last)
			last = resp
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx))
	if last != nil {
		return last, nil
	}
	return nil, err
}

// State returns the current circuit state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker's counters for the current generation.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

// ServerError marks a 5xx response as a breaker failure.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

func discard(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
