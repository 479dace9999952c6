package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL applies when Issue is called without a lifetime.
	DefaultTokenTTL = 15 * time.Minute
	// LoginTokenTTL is the lifetime of tokens handed out at login.
	LoginTokenTTL = 30 * time.Minute
	// TokenType is the OAuth2 token_type returned with access tokens.
	TokenType = "bearer"
)

// ErrInvalidToken is returned for every token that does not validate.
var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and validates HS256 bearer tokens carrying sub and exp.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService returns a service signing with secret. The secret is fixed
// for the lifetime of the service.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is empty")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of the service reading time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for subject expiring after ttl, or after
// DefaultTokenTTL when ttl is not positive.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate returns the subject of a valid token. Any failure, including an
// expired token or an empty subject, yields ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
