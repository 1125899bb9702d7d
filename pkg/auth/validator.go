package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeySource provides the current token signing key. pkg/keys implements
// this interface.
type KeySource interface {
	SigningKey() []byte
}

// Claims are the JWT claims carried by tokens issued by the auth service.
// The subject is the user's email; userId is the stable identifier that
// backends key on.
type Claims struct {
	// UserID is the stable user identifier.
	UserID string `json:"userId"`

	// Email is the user's email address.
	Email string `json:"email"`

	// Role is the user's role (e.g., "USER", "ADMIN").
	Role string `json:"role"`

	// Name is the user's display name.
	Name string `json:"name,omitempty"`

	// TokenType distinguishes access tokens from refresh tokens.
	TokenType string `json:"type,omitempty"`

	jwt.RegisteredClaims
}

// Validator verifies HMAC-signed bearer tokens.
//
// Every failure is classified into one of the three kinds ErrMalformedToken,
// ErrInvalidSignature or ErrExpiredToken; callers never see raw library
// errors. Validation is stateless: the signing key is read from the key
// source per call, so a rotated key applies to the next request.
type Validator struct {
	keys   KeySource
	parser *jwt.Parser
}

// NewValidator creates a Validator reading keys from the given source.
// leeway is the clock skew tolerance applied to exp/nbf checks, so a
// gateway whose clock runs slightly ahead of the issuer's does not
// reject fresh tokens.
func NewValidator(keys KeySource, leeway time.Duration) *Validator {
	return &Validator{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(leeway),
		),
	}
}

// Validate verifies the token string and returns its claims.
//
// Classification order matters: a token that is both expired and
// tampered with reports the signature failure, since nothing about an
// unverified token can be trusted, including its expiry.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.keys.SigningKey(), nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrMalformedToken
	}

	return claims, nil
}

// classify maps jwt library errors onto the package's failure kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		// Both sides of the validity window report as expired.
		return fmt.Errorf("%w: %w", ErrExpiredToken, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}
