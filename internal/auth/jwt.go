// Package auth issues and validates the bearer tokens that guard the
// operational endpoints.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OperatorTokenExpiry is the default lifetime of operator tokens.
const OperatorTokenExpiry = 1 * time.Hour

// ScopeOps grants read access to the ops status endpoint.
const ScopeOps = "ops"

// Predefined JWT errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrNotConfigured      = errors.New("token signing key not configured")
)

// JWTClaims represents the claims in operator access tokens.
type JWTClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the HS256 secret. An empty key rejects every token.
	SigningKey string

	// Issuer is the issuer claim for tokens.
	Issuer string

	// Audience is the audience claim for tokens.
	Audience string

	// TTL is the token lifetime.
	// Default: OperatorTokenExpiry
	TTL time.Duration
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = OperatorTokenExpiry
	}
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		ttl:        ttl,
	}
}

// GenerateAccessToken creates a token for the given operator.
func (s *JWTService) GenerateAccessToken(subject string) (string, time.Time, error) {
	if len(s.signingKey) == 0 {
		return "", time.Time{}, ErrNotConfigured
	}

	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := JWTClaims{
		Scope: ScopeOps,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken validates a token and returns its subject.
func (s *JWTService) ValidateAccessToken(tokenString string) (string, error) {
	if len(s.signingKey) == 0 {
		return "", ErrInvalidAccessToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrAccessTokenExpired
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.Scope != ScopeOps {
		return "", ErrInvalidAccessToken
	}

	return claims.Subject, nil
}
