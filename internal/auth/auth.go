// Package auth issues and verifies the operator bearer tokens that guard
// the audit and usage routes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the registered claims plus the operator role.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer returns an Issuer. The secret must not be empty.
func NewIssuer(secret, issuer string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required")
	}
	if issuer == "" {
		issuer = "veritrustx"
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for subject that expires after ttl.
func (i *Issuer) Issue(subject, role string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	now := i.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and checks its signature, algorithm, issuer and expiry.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
