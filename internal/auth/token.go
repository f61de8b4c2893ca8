// Package auth provides JWT issuance/verification and password
// hashing. The engine itself never touches tokens; this package is the
// external collaborator the HTTP layer authenticates with.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookapi/internal/model"
)

const minSecretSize = 16

var (
	// ErrExpiredToken is returned when the token's lifetime has passed.
	ErrExpiredToken = errors.New("token is expired")
	// ErrInvalidToken is returned for any other verification failure.
	ErrInvalidToken = errors.New("token is invalid")
)

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// TokenMaker signs and verifies HS256 access tokens.
type TokenMaker struct {
	secret string
	ttl    time.Duration
}

// NewTokenMaker creates a TokenMaker. The secret must be at least
// minSecretSize characters.
func NewTokenMaker(secret string, ttl time.Duration) (*TokenMaker, error) {
	if len(secret) < minSecretSize {
		return nil, fmt.Errorf("invalid key size: must be at least %d characters", minSecretSize)
	}
	return &TokenMaker{secret: secret, ttl: ttl}, nil
}

// CreateToken issues a signed token for the given user.
func (m *TokenMaker) CreateToken(userID string, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Role: role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// VerifyToken parses and validates a token, returning its claims.
func (m *TokenMaker) VerifyToken(token string) (*Claims, error) {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.secret), nil
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
