package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/inkwell-blog/inkwell/internal/logger"
	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/request"
	"github.com/inkwell-blog/inkwell/internal/services/token"
)

// GateConfig describes which path prefixes the gate intercepts and where it
// sends rejected requests.
type GateConfig struct {
	// ProtectedPrefixes require an authenticated session. Everything else
	// proceeds unconditionally.
	ProtectedPrefixes []string
	// OwnerOnlyPrefixes additionally require the owner-admin role.
	OwnerOnlyPrefixes []string
	// LoginPath receives unauthenticated users, with the original path in
	// the redirect query parameter so they land back where they were going.
	LoginPath string
	// UnauthorizedPath receives authenticated users whose role is
	// insufficient. Sending them to login instead would loop.
	UnauthorizedPath string
	// SecureCookies controls the Secure flag on the cleared cookie.
	SecureCookies bool
}

// DefaultGateConfig matches the admin surfaces and the setup wizard.
func DefaultGateConfig(secureCookies bool) GateConfig {
	return GateConfig{
		ProtectedPrefixes: []string{"/admin", "/setup"},
		OwnerOnlyPrefixes: []string{"/setup", "/admin/permissions", "/admin/settings"},
		LoginPath:         "/auth/login",
		UnauthorizedPath:  "/unauthorized",
		SecureCookies:     secureCookies,
	}
}

// Gate intercepts requests to protected path prefixes, verifies the session
// credential from the cookie, and redirects or denies as needed. The check is
// a single signature verification: no network call, no store lookup, so it
// runs on every matching request without meaningful latency.
func Gate(codec *token.Codec, cfg GateConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !matchesPrefix(path, cfg.ProtectedPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			credential := token.FromRequest(r)
			if credential == "" {
				redirectToLogin(w, r, cfg, path)
				return
			}

			claims, err := codec.Verify(credential)
			if err != nil {
				// The cause distinguishes expiry from tampering; only the
				// log gets to see which.
				logger.Info("credential_rejected",
					zap.String("path", logpkg.SanitizePath(path)),
					zap.Error(err),
				)
				http.SetCookie(w, token.ClearedSessionCookie(cfg.SecureCookies))
				redirectToLogin(w, r, cfg, path)
				return
			}

			if matchesPrefix(path, cfg.OwnerOnlyPrefixes) && claims.Role != models.RoleOwnerAdmin {
				logger.Info("owner_only_path_denied",
					zap.String("path", logpkg.SanitizePath(path)),
					zap.String("role", string(claims.Role)),
				)
				http.Redirect(w, r, cfg.UnauthorizedPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithClaims(r.Context(), claims)))
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, cfg GateConfig, originalPath string) {
	target := cfg.LoginPath + "?redirect=" + url.QueryEscape(originalPath)
	http.Redirect(w, r, target, http.StatusFound)
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
