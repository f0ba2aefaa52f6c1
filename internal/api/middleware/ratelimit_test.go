package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdesk/weatherdesk/internal/api/middleware"
)

// hit sends one request from addr and returns the recorded response.
func hit(handler http.Handler, addr, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/weather", http.NoBody)
	req.RemoteAddr = addr
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute}
	handler := middleware.RequestID(middleware.RateLimitByIP(cfg)(okHandler()))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1234", "").Code, "request %d", i+1)
	}

	rec := hit(handler, "10.0.0.1:1234", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "too-many-requests")
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
	assert.Contains(t, rec.Body.String(), "/weather")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1234", "").Code, "other clients keep their own budget")
}

func TestRateLimitByOperator_UsesOperatorWhenAuthenticated(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute}

	jwtService := createTestJWTService(t)
	token, _, err := jwtService.GenerateAccessToken("operator")
	require.NoError(t, err)

	handler := middleware.Auth(jwtService)(middleware.RateLimitByOperator(cfg)(okHandler()))

	// Same operator from different IPs shares one bucket
	assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.1:1", token).Code)
	assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.2:1", token).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "192.168.1.3:1", token).Code)
}

func TestRateLimitByOperator_FallsBackToIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute}
	handler := middleware.RateLimitByOperator(cfg)(okHandler())

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1", "").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:1", "").Code)
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 30, middleware.LookupRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.LookupRateLimit.WindowLength)

	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.StandardRateLimit.WindowLength)
}

func TestRateLimit_RetryAfterFollowsWindow(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: 1500 * time.Millisecond}
	handler := middleware.RateLimitByIP(cfg)(okHandler())

	hit(handler, "10.9.9.9:1", "")
	rec := hit(handler, "10.9.9.9:1", "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}
