package weather_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdesk/weatherdesk/internal/weather"
)

// mockProvider is a mock weather provider for testing.
type mockProvider struct {
	mu        sync.Mutex
	callCount int
	cities    []string
	raw       *weather.Raw
	err       error
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) Current(_ context.Context, city string, _ weather.AqiChoice) (*weather.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.cities = append(m.cities, city)

	if m.err != nil {
		return nil, m.err
	}
	return m.raw, nil
}

type renderCall struct {
	seq    uint64
	result weather.DisplayResult
	aqi    weather.AqiChoice
}

// mockRenderer records renders and accepts only increasing sequences.
type mockRenderer struct {
	mu    sync.Mutex
	calls []renderCall
	last  uint64
}

func (r *mockRenderer) ClearAndRender(seq uint64, result weather.DisplayResult, aqi weather.AqiChoice) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{seq: seq, result: result, aqi: aqi})
	if seq <= r.last {
		return false
	}
	r.last = seq
	return true
}

type mockRecorder struct {
	requests  int
	failures  int
	successes int
	lastErr   error
}

func (m *mockRecorder) RecordRequest(_, _ string, _ time.Duration, err error) {
	m.requests++
	m.lastErr = err
}

func (m *mockRecorder) RecordSuccess(string) { m.successes++ }

func (m *mockRecorder) RecordFailure(string, error) { m.failures++ }

func newTestService(provider weather.Provider, renderer weather.Renderer, logBuf *bytes.Buffer, rec *mockRecorder) *weather.Service {
	return weather.NewService(weather.ServiceConfig{
		Provider: provider,
		Renderer: renderer,
		Logger:   zerolog.New(logBuf),
		Metrics:  rec,
		Health:   rec,
	})
}

func TestService_Lookup_Success(t *testing.T) {
	provider := &mockProvider{raw: decodeSample(t, sampleBody)}
	renderer := &mockRenderer{}
	rec := &mockRecorder{}
	var logs bytes.Buffer
	svc := newTestService(provider, renderer, &logs, rec)

	result, err := svc.Lookup(context.Background(), weather.Query{City: "  London ", AQI: weather.AqiYes})
	require.NoError(t, err)

	assert.Equal(t, []string{"London"}, provider.cities, "city is trimmed before fetching")
	assert.Equal(t, weather.RainHigh, result.Info.RainProb)
	assert.NotNil(t, result.AirQuality)

	require.Len(t, renderer.calls, 1)
	assert.Equal(t, uint64(1), renderer.calls[0].seq)
	assert.Equal(t, weather.AqiYes, renderer.calls[0].aqi)
	assert.Equal(t, 1, rec.requests)
	assert.Equal(t, 1, rec.successes)
	assert.Empty(t, logs.String())
}

func TestService_Lookup_BlankCityMakesNoCall(t *testing.T) {
	for _, city := range []string{"", "   ", "\t\n"} {
		provider := &mockProvider{raw: decodeSample(t, sampleBody)}
		renderer := &mockRenderer{}
		svc := newTestService(provider, renderer, &bytes.Buffer{}, &mockRecorder{})

		_, err := svc.Lookup(context.Background(), weather.Query{City: city, AQI: weather.AqiNo})

		require.ErrorIs(t, err, weather.ErrValidation)
		assert.Zero(t, provider.callCount)
		assert.Empty(t, renderer.calls)
	}
}

func TestService_Lookup_FetchErrorIsLoggedNotRendered(t *testing.T) {
	provider := &mockProvider{err: &weather.FetchError{StatusCode: http.StatusNotFound}}
	renderer := &mockRenderer{}
	rec := &mockRecorder{}
	var logs bytes.Buffer
	svc := newTestService(provider, renderer, &logs, rec)

	_, err := svc.Lookup(context.Background(), weather.Query{City: "Nowhere", AQI: weather.AqiNo})

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Empty(t, renderer.calls)
	assert.Equal(t, 1, rec.failures)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Error fetching data", entry["message"])
	assert.Equal(t, "Nowhere", entry["city"])
	assert.Equal(t, float64(404), entry["status"])
}

func TestService_Lookup_ParseErrorIsLoggedNotRendered(t *testing.T) {
	provider := &mockProvider{err: &weather.ParseError{Err: errors.New("unexpected end of JSON input")}}
	renderer := &mockRenderer{}
	var logs bytes.Buffer
	svc := newTestService(provider, renderer, &logs, &mockRecorder{})

	_, err := svc.Lookup(context.Background(), weather.Query{City: "Oslo", AQI: weather.AqiNo})

	var parseErr *weather.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Empty(t, renderer.calls)
	assert.Contains(t, logs.String(), "unexpected end of JSON input")
}

func TestService_Lookup_SequenceIncreasesPerSubmission(t *testing.T) {
	provider := &mockProvider{raw: decodeSample(t, sampleBody)}
	renderer := &mockRenderer{}
	svc := newTestService(provider, renderer, &bytes.Buffer{}, &mockRecorder{})

	for i := 0; i < 3; i++ {
		_, err := svc.Lookup(context.Background(), weather.Query{City: "London", AQI: weather.AqiNo})
		require.NoError(t, err)
	}

	require.Len(t, renderer.calls, 3)
	for i, call := range renderer.calls {
		assert.Equal(t, uint64(i+1), call.seq)
	}
}

func TestService_Lookup_StaleResultIsLogged(t *testing.T) {
	provider := &mockProvider{raw: decodeSample(t, sampleBody)}
	renderer := &mockRenderer{last: 100}
	var logs bytes.Buffer
	svc := newTestService(provider, renderer, &logs, &mockRecorder{})

	result, err := svc.Lookup(context.Background(), weather.Query{City: "London", AQI: weather.AqiNo})
	require.NoError(t, err)

	assert.Equal(t, "London", *result.Info.Location)
	assert.Contains(t, logs.String(), "discarding stale weather result")
}

func TestService_Lookup_WithoutRenderer(t *testing.T) {
	provider := &mockProvider{raw: decodeSample(t, sampleBody)}
	svc := weather.NewService(weather.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, err := svc.Lookup(context.Background(), weather.Query{City: "London", AQI: weather.AqiNo})
	require.NoError(t, err)
}

func TestValidateQuery(t *testing.T) {
	q, err := weather.ValidateQuery(weather.Query{City: "  Cork\t", AQI: weather.AqiYes})
	require.NoError(t, err)
	assert.Equal(t, "Cork", q.City)
	assert.Equal(t, weather.AqiYes, q.AQI)

	_, err = weather.ValidateQuery(weather.Query{City: " "})
	assert.ErrorIs(t, err, weather.ErrValidation)
}
