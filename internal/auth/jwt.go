// Package auth provides JWT issuance and validation, password hashing, and
// the HTTP middleware that injects the authenticated user's identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime is how long an issued access token stays valid.
const DefaultTokenLifetime = 24 * time.Hour

const issuer = "skillswap"

// TokenService signs and verifies JWT access tokens. The same HMAC secret
// is used for both; it should be at least 32 bytes of random data in
// production.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The "sub" claim carries the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new access token for the given userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, DefaultTokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used in tests
// to fabricate expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the userID from the
// "sub" claim. Signature, expiry, issuer, and signing algorithm are all
// checked; restricting the algorithm to HS256 blocks confusion attacks.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
