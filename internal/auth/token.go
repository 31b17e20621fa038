// Package auth implements the identity context: HS256 bearer tokens carrying
// a principal id and role, bcrypt password handling, and the deterministic
// user-id derivation shared by registration and login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// Audience is embedded in every issued token and required on verification.
const Audience = "auction-house"

// Principal is the verified identity attached to a request.
type Principal struct {
	ID        string
	Role      domain.Role
	Email     string
	FirstName string
	LastName  string
}

// Claims is the JWT payload. The subject carries the principal id.
type Claims struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies bearer tokens with a single shared secret.
// The secret is injected once at startup and never logged.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. The secret must be non-empty; ttl
// bounds how long issued tokens stay valid.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for the given principal.
func (m *TokenManager) Issue(p Principal) (string, error) {
	now := m.now()
	claims := Claims{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Role:      p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token and returns its principal. Any
// syntactically valid but unverifiable token (wrong signature, wrong
// audience, expired, unexpected algorithm) yields domain.ErrUnauthorized.
func (m *TokenManager) Verify(raw string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return m.secret, nil
		},
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("auth: %w: %v", domain.ErrUnauthorized, err)
	}
	if !claims.Role.Valid() || claims.Subject == "" {
		return Principal{}, fmt.Errorf("auth: %w: malformed claims", domain.ErrUnauthorized)
	}

	return Principal{
		ID:        claims.Subject,
		Role:      claims.Role,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}
