package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/weatherdesk/weatherdesk/internal/api/models"
	"github.com/weatherdesk/weatherdesk/internal/auth"
)

type operatorKey struct{}

// TokenValidator validates a bearer token and returns its subject.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

const bearerScheme = "bearer"

// Auth admits requests carrying a valid operator token and stores the
// token subject in the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := bearerToken(r.Header.Get("Authorization"))
			if detail != "" {
				writeUnauthorized(w, r, detail)
				return
			}

			operator, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeUnauthorized(w, r, tokenFailure(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), operatorKey{}, operator)))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively. A non-empty detail explains a rejection.
func bearerToken(header string) (token, detail string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", "invalid authorization header format"
	}
	if token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccessTokenExpired):
		return "access token has expired"
	case errors.Is(err, auth.ErrInvalidAccessToken):
		return "invalid access token"
	default:
		return "authentication failed"
	}
}

// writeUnauthorized builds the problem itself: response imports middleware.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="weatherdesk-ops"`)
	problem := models.NewProblem(http.StatusUnauthorized, GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetOperator returns the authenticated operator, or "" outside Auth.
func GetOperator(ctx context.Context) string {
	operator, _ := ctx.Value(operatorKey{}).(string)
	return operator
}
