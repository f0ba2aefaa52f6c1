package weatherapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdesk/weatherdesk/internal/provider/resilience"
	"github.com/weatherdesk/weatherdesk/internal/weather"
	"github.com/weatherdesk/weatherdesk/internal/weather/weatherapi"
)

func currentResponse(withAQ bool) map[string]interface{} {
	current := map[string]interface{}{
		"temp_c":   15.0,
		"humidity": 80,
		"wind_kph": 5.0,
		"cloud":    60,
	}
	if withAQ {
		current["air_quality"] = map[string]interface{}{
			"co":             230.3,
			"no2":            13.5,
			"o3":             54.3,
			"so2":            3.2,
			"pm2_5":          8.1,
			"pm10":           10.9,
			"us-epa-index":   1,
			"gb-defra-index": 1,
		}
	}
	return map[string]interface{}{
		"location": map[string]interface{}{
			"name":      "São Paulo",
			"region":    "Sao Paulo",
			"country":   "Brazil",
			"lat":       -23.53,
			"lon":       -46.62,
			"localtime": "2026-10-18 6:30",
		},
		"current": current,
	}
}

func newTestClient(baseURL string) *weatherapi.Client {
	return weatherapi.NewClient(weatherapi.ClientConfig{
		APIKey:     "****",
		BaseURL:    baseURL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})
}

func TestClient_Current(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/current.json", r.URL.Path)
		assert.Equal(t, "****", r.URL.Query().Get("key"))
		assert.Equal(t, "São Paulo", r.URL.Query().Get("q"))
		assert.Equal(t, "yes", r.URL.Query().Get("aqi"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(currentResponse(true))
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL).Current(context.Background(), "São Paulo", weather.AqiYes)
	require.NoError(t, err)
	require.NotNil(t, raw.Location)
	require.NotNil(t, raw.Current)

	assert.Equal(t, "São Paulo", *raw.Location.Name)
	assert.Equal(t, -23.53, *raw.Location.Lat)
	assert.Equal(t, 15.0, *raw.Current.TempC)
	assert.Equal(t, 80.0, *raw.Current.Humidity)
	require.NotNil(t, raw.Current.AirQuality)
	assert.Len(t, raw.Current.AirQuality.Values(), 8)
}

func TestClient_Current_NoAirQuality(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "no", r.URL.Query().Get("aqi"))
		json.NewEncoder(w).Encode(currentResponse(false))
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL).Current(context.Background(), "Sao Paulo", weather.AqiNo)
	require.NoError(t, err)
	assert.Nil(t, raw.Current.AirQuality)
}

func TestClient_CurrentURL_EncodesParameters(t *testing.T) {
	client := weatherapi.NewClient(weatherapi.ClientConfig{
		APIKey:  "k&y=1",
		BaseURL: "https://example.test",
	})

	raw := client.CurrentURL("New York & Co", weather.AqiChoice("no"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "example.test", u.Host)
	assert.Equal(t, "/v1/current.json", u.Path)
	assert.Equal(t, "k&y=1", u.Query().Get("key"))
	assert.Equal(t, "New York & Co", u.Query().Get("q"))
	assert.Equal(t, "no", u.Query().Get("aqi"))
	assert.Len(t, u.Query(), 3)
}

func TestClient_Current_DefaultBaseURL(t *testing.T) {
	client := weatherapi.NewClient(weatherapi.ClientConfig{APIKey: "k"})
	assert.Contains(t, client.CurrentURL("Paris", weather.AqiNo), "https://api.weatherapi.com/v1/current.json?")
}

func TestClient_Current_NonSuccessStatus(t *testing.T) {
	statuses := []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusInternalServerError,
	}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Current(context.Background(), "Atlantis", weather.AqiNo)

			var fetchErr *weather.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, status, fetchErr.StatusCode)
			assert.Equal(t, int32(1), attempts.Load(), "no retry")
		})
	}
}

func TestClient_Current_MalformedBody(t *testing.T) {
	bodies := map[string]string{
		"not json":          `<html>oops</html>`,
		"truncated":         `{"location":{"name":"Oslo"`,
		"missing current":   `{"location":{"name":"Oslo"}}`,
		"missing location":  `{"current":{"temp_c":1}}`,
		"wrong field type":  `{"location":{"name":"Oslo"},"current":{"temp_c":"cold"}}`,
		"array air quality": `{"location":{},"current":{"air_quality":[1,2]}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Current(context.Background(), "Oslo", weather.AqiYes)

			var parseErr *weather.ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestClient_Current_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := newTestClient(baseURL).Current(context.Background(), "Oslo", weather.AqiNo)

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.StatusCode)
	assert.NotContains(t, err.Error(), "key=")
	assert.Contains(t, err.Error(), "q=Oslo")

	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	assert.NotContains(t, urlErr.URL, "key=")
}

func TestClient_Current_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(currentResponse(false))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).Current(ctx, "Oslo", weather.AqiNo)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "key=")
}

func TestClient_Name(t *testing.T) {
	client := weatherapi.NewClient(weatherapi.ClientConfig{APIKey: "k"})
	assert.Equal(t, weatherapi.ProviderName, client.Name())
}
