package service

import (
	"fmt"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

// JWTClaims represents the custom claims in gateway access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 gateway tokens. Internal callers
// present them as Bearer tokens; the CLI mints them for operators.
type TokenIssuer struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenIssuer creates an issuer. An empty secret yields nil, which
// disables gateway auth.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{jwtSecret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an access token for subject.
func (s *TokenIssuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", &domain.ErrValidation{Field: "subject", Message: "subject is required"}
	}
	now := s.now()
	claims := JWTClaims{
		Sub:  subject,
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "wecom-gateway",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and checks a token, used by the gateway middleware.
func (s *TokenIssuer) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != tokenTypeAccess {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	return claims, nil
}

// TTL reports how long issued tokens stay valid.
func (s *TokenIssuer) TTL() time.Duration { return s.ttl }
