// Package proxy implements the gateway's dispatcher: the handler that
// carries a request from route matching to a relayed backend response.
//
// Each request moves through a fixed sequence:
//
//  1. Match the path against the route table (miss: 404 NOT_FOUND)
//  2. Authenticate, when the route requires it (failure: 401)
//  3. Acquire an admission slot for the service (full: 503)
//  4. Resolve the service to healthy targets (none: 503)
//  5. Forward to a target and relay the response
//
// The gateway answers rejected requests itself with a JSON body of the
// form {"error": CODE, "message": text}; backend responses, including
// backend errors, are relayed as-is.
//
// Forwarding derives its timeout context from the inbound request
// context, so a client disconnect cancels the upstream call. GET and
// HEAD requests get at most one retry against a different target when
// the first attempt times out or fails to connect; other methods are
// never retried because the first attempt may have taken effect.
//
// The subdirectory middleware provides the recovery, request ID, and
// request logging handlers wrapped around the dispatcher.
package proxy
