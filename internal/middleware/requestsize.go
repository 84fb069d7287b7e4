package middleware

import "net/http"

// DefaultMaxRequestSize caps request bodies at 1MB, comfortably above the
// largest post payload the API accepts.
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize bounds request body size. A declared Content-Length over the
// limit is refused outright; otherwise the body is wrapped so oversized
// streams fail at read time.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}
