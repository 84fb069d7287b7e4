package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/inkwell-blog/inkwell/internal/models"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsContextKey returns the context key used for session claims. Exposed for tests that inject non-claims values.
func ClaimsContextKey() contextKey { return claimsContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithClaims returns a context with the verified session claims attached.
func WithClaims(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the session claims from the request context, or nil if missing or wrong type.
func ClaimsFromContext(r *http.Request) *models.Claims {
	c, _ := r.Context().Value(claimsContextKey).(*models.Claims)
	return c
}
