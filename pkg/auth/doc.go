// Package auth implements bearer token validation for the gateway.
//
// The Validator checks HMAC-signed JWTs issued by the auth service and
// classifies every failure into one of three kinds: malformed token,
// invalid signature, or expired token. The Filter sits in front of the
// Validator and handles the HTTP side of authentication: extracting the
// token from the Authorization header (adding the fourth failure kind,
// missing token) and turning validated claims into an Identity the
// dispatcher forwards to backends as trusted headers.
//
// Validation reads the signing key through a key source on every call,
// so key rotation takes effect without restarting the gateway.
//
// Example usage:
//
//	src, _ := keys.NewStaticSource([]byte("secret"))
//	filter := auth.NewFilter(auth.NewValidator(src, 5*time.Second))
//
//	identity, err := filter.Authenticate(r)
//	switch {
//	case errors.Is(err, auth.ErrMissingToken):
//	    // 401 MISSING_TOKEN
//	case errors.Is(err, auth.ErrExpiredToken):
//	    // 401 EXPIRED_TOKEN
//	}
package auth
