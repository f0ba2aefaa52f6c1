package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/weatherdesk/weatherdesk/internal/api/models"
)

// RateLimitConfig is a fixed request budget per window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

var (
	// LookupRateLimit guards routes that call the weather provider.
	LookupRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}

	// StandardRateLimit guards everything else.
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits each client address. Behind a proxy this relies on
// chi's RealIP having rewritten RemoteAddr.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return limiter(cfg, httprate.KeyByRealIP)
}

// RateLimitByOperator limits each authenticated operator across addresses,
// falling back to the client address when no operator is set.
func RateLimitByOperator(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return limiter(cfg, func(r *http.Request) (string, error) {
		if op := GetOperator(r.Context()); op != "" {
			return "operator:" + op, nil
		}
		return httprate.KeyByRealIP(r)
	})
}

func limiter(cfg RateLimitConfig, key httprate.KeyFunc) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.WindowLength.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			// httprate does not expose the reset time, so a full window is
			// the upper bound.
			w.Header().Set("Retry-After", retryAfter)

			problem := models.NewProblem(http.StatusTooManyRequests, GetRequestID(r.Context()),
				"Rate limit exceeded. Please try again later.")
			problem.Instance = r.URL.Path
			problem.Write(w)
		}),
	)
}
