package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"taskmesh/atlas/pkg/proxy"
)

// Recovery recovers from panics in downstream handlers and answers with
// a 500 INTERNAL_ERROR rejection. The panic and its stack trace are
// logged; neither reaches the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				proxy.WriteRejection(w, http.StatusInternalServerError,
					proxy.ReasonInternal, "an internal error occurred")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
