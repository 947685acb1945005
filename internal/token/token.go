// Package token issues and verifies the signed, stateless bearer tokens
// that carry a user identity between login and subsequent requests.
// Validity is determined purely by signature and expiry; there is no
// server-side token store and no revocation.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidClaims is returned by Issue when the claims are malformed,
// meaning there is no user identifier to sign.
var ErrInvalidClaims = errors.New("token claims must contain a user identifier")

// ErrInvalidToken is returned by Verify for any unusable token: bad
// signature, malformed structure, or expiry. Callers must not be able to
// tell these apart.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds a user-specific identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Service signs and verifies tokens with a process-wide secret key.
// The secret is read-only after construction; rotating it invalidates
// all previously issued tokens.
type Service struct {
	signingSecretKey []byte
	tokenTTL         time.Duration
}

// New creates a Service with the given signing secret and token lifetime.
func New(signingSecretKey []byte, tokenTTL time.Duration) *Service {
	return &Service{
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
	}
}

// Issue signs a token carrying userID. The claim shape is validated
// before signing.
func (s *Service) Issue(userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidClaims
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: userID,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(s.signingSecretKey)
	if err != nil {
		return "", fmt.Errorf("in internal/token/token.go/Issue(): error while `token.SignedString()` calling: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// decoded claims. Any failure is reported as ErrInvalidToken.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.signingSecretKey, nil
		},
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
