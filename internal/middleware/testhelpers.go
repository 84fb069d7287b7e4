package middleware

import (
	"context"

	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/request"
)

// SetClaimsInContext is a helper for tests in other packages that need a
// request to look authenticated without running the gate.
func SetClaimsInContext(ctx context.Context, claims *models.Claims) context.Context {
	return request.WithClaims(ctx, claims)
}
