package auth

import "errors"

// Authentication failure kinds. Each maps to exactly one rejection reason
// in the gateway's 401 responses, so callers can check with errors.Is()
// and pick the reason code.
var (
	// ErrMissingToken is returned when the request carries no bearer
	// token at all.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrMalformedToken is returned when the token is present but is not
	// a structurally valid JWT, or its claims cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature is returned when the token parses but its
	// signature does not verify against the current signing key, or it
	// was signed with an unexpected algorithm.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpiredToken is returned when the token's signature verifies
	// but it is outside its validity window, beyond the configured
	// clock skew allowance.
	ErrExpiredToken = errors.New("token expired")
)
