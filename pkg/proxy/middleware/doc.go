// Package middleware provides the HTTP middleware wrapped around the
// dispatcher: panic recovery, request ID assignment, and structured
// request logging.
//
// The server composes them as recovery → request ID → logging → handler,
// so every response carries an X-Request-ID header and every log line
// for a request, including a panic, carries the same ID.
package middleware
