// Package weatherapi is a client for the weatherapi.com current conditions
// endpoint.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/weatherdesk/weatherdesk/internal/provider/resilience"
	"github.com/weatherdesk/weatherdesk/internal/telemetry"
	"github.com/weatherdesk/weatherdesk/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "weatherapi"

	// DefaultBaseURL is the weatherapi.com API base URL.
	DefaultBaseURL = "https://api.weatherapi.com"

	currentPath = "/v1/current.json"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 1 << 20

	tracerName = "github.com/weatherdesk/weatherdesk/internal/weather/weatherapi"
)

// ClientConfig holds configuration for the weatherapi.com client.
type ClientConfig struct {
	// APIKey is the weatherapi.com API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to weatherapi.com).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client without retries.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a weatherapi.com API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new weatherapi.com client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// CurrentURL builds the current.json request URL. Every parameter is query
// encoded.
func (c *Client) CurrentURL(city string, aqi weather.AqiChoice) string {
	return c.currentURL(c.apiKey, city, aqi)
}

func (c *Client) currentURL(key, city string, aqi weather.AqiChoice) string {
	params := url.Values{}
	if key != "" {
		params.Set("key", key)
	}
	params.Set("q", city)
	params.Set("aqi", string(aqi))
	return c.baseURL + currentPath + "?" + params.Encode()
}

// Current fetches current conditions for a city. A non-2xx status yields a
// *weather.FetchError; a body that is not valid current.json yields a
// *weather.ParseError.
func (c *Client) Current(ctx context.Context, city string, aqi weather.AqiChoice) (*weather.Raw, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "weatherapi.Current",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", ProviderName),
			attribute.String("weather.aqi", string(aqi)),
		),
	)
	defer span.End()

	raw, err := c.current(ctx, city, aqi)
	if err != nil {
		var fetchErr *weather.FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.status_code", fetchErr.StatusCode))
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) current(ctx context.Context, city string, aqi weather.AqiChoice) (*weather.Raw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CurrentURL(city, aqi), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &weather.FetchError{Err: fmt.Errorf("executing request: %w", c.redact(err, city, aqi))}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &weather.FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &weather.FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	raw, err := decodeCurrent(body)
	if err != nil {
		return nil, &weather.ParseError{Err: err}
	}

	c.logger.Debug().
		Str("city", city).
		Str("aqi", string(aqi)).
		Bool("air_quality", raw.Current.AirQuality != nil).
		Msg("fetched current weather")

	return raw, nil
}

// decodeCurrent validates the body against the current.json schema and
// decodes it.
func decodeCurrent(body []byte) (*weather.Raw, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if err := currentSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validating response: %w", err)
	}

	var raw weather.Raw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &raw, nil
}

// redact strips the API key from transport errors. A *url.Error prints the
// request URL, and so does anything wrapping it, so the whole chain is
// replaced by a copy that names the URL without the key.
func (c *Client) redact(err error, city string, aqi weather.AqiChoice) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: c.currentURL("", city, aqi),
		Err: urlErr.Err,
	}
}
