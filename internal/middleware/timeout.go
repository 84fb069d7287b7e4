package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds handlers that did not pick their own limit.
const DefaultRequestTimeout = 30 * time.Second

// Timeout caps how long a request may run. The deadline rides on the request
// context so downstream HTTP calls (the GitHub exchange in particular) are cut
// off together with the handler.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			http.TimeoutHandler(next, timeout, "Request Timeout").
				ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
