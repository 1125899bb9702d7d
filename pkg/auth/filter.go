package auth

import (
	"net/http"
	"strings"
)

// Identity header names set on forwarded requests after successful
// authentication. The dispatcher strips these from every inbound request
// before authentication runs, so backends can trust them unconditionally.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRoles = "X-User-Roles"
)

// Identity is the authenticated caller as forwarded to backends.
type Identity struct {
	// UserID is the stable user identifier.
	UserID string

	// Email is the user's email address.
	Email string

	// Roles are the user's roles.
	Roles []string
}

// Filter authenticates HTTP requests against a token validator.
type Filter struct {
	validator *Validator
}

// NewFilter creates a Filter around the given validator.
func NewFilter(validator *Validator) *Filter {
	return &Filter{validator: validator}
}

// Authenticate extracts and validates the bearer token on the request,
// returning the caller's identity. Failures are one of ErrMissingToken,
// ErrMalformedToken, ErrInvalidSignature or ErrExpiredToken.
func (f *Filter) Authenticate(r *http.Request) (*Identity, error) {
	token, ok := extractBearer(r)
	if !ok {
		return nil, ErrMissingToken
	}

	claims, err := f.validator.Validate(token)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	if claims.Role != "" {
		identity.Roles = strings.Split(claims.Role, ",")
	}
	return identity, nil
}

// SetIdentityHeaders writes the identity onto an outbound request's
// headers. Call StripIdentityHeaders on the inbound request first.
func SetIdentityHeaders(h http.Header, identity *Identity) {
	h.Set(HeaderUserID, identity.UserID)
	h.Set(HeaderUserEmail, identity.Email)
	if len(identity.Roles) > 0 {
		h.Set(HeaderUserRoles, strings.Join(identity.Roles, ","))
	}
}

// StripIdentityHeaders removes client-supplied identity headers. Inbound
// values are never forwarded: a client must not be able to impersonate a
// user by setting these headers itself.
func StripIdentityHeaders(h http.Header) {
	h.Del(HeaderUserID)
	h.Del(HeaderUserEmail)
	h.Del(HeaderUserRoles)
}

// extractBearer pulls the token out of the Authorization header. An
// Authorization header with a different scheme counts as missing, not
// malformed: the request simply carries no bearer token.
func extractBearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
