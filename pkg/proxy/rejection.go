package proxy

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskmesh/atlas/pkg/auth"
)

// Rejection reason codes. These are part of the gateway's client-facing
// contract; clients branch on the code, the message is for humans.
const (
	ReasonMissingToken     = "MISSING_TOKEN"
	ReasonMalformedToken   = "MALFORMED_TOKEN"
	ReasonInvalidSignature = "INVALID_SIGNATURE"
	ReasonExpiredToken     = "EXPIRED_TOKEN"
	ReasonNotFound         = "NOT_FOUND"
	ReasonUnavailable      = "SERVICE_UNAVAILABLE"
	ReasonUpstreamTimeout  = "UPSTREAM_TIMEOUT"
	ReasonInternal         = "INTERNAL_ERROR"
)

// Rejection is the JSON body of a gateway-generated error response.
type Rejection struct {
	// Error is the machine-readable reason code.
	Error string `json:"error"`

	// Message is a human-readable explanation.
	Message string `json:"message"`
}

// WriteRejection writes a gateway rejection response.
func WriteRejection(w http.ResponseWriter, status int, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Rejection{Error: reason, Message: message})
}

// authReason maps an authentication failure onto its reason code.
func authReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return ReasonMissingToken
	case errors.Is(err, auth.ErrInvalidSignature):
		return ReasonInvalidSignature
	case errors.Is(err, auth.ErrExpiredToken):
		return ReasonExpiredToken
	default:
		return ReasonMalformedToken
	}
}

// authMessage is the human-readable text for each auth reason code.
func authMessage(reason string) string {
	switch reason {
	case ReasonMissingToken:
		return "request does not carry a bearer token"
	case ReasonInvalidSignature:
		return "token signature could not be verified"
	case ReasonExpiredToken:
		return "token is outside its validity window"
	default:
		return "token is not a valid JWT"
	}
}
