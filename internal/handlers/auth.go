package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/inkwell-blog/inkwell/internal/logger"
	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/services/github"
	"github.com/inkwell-blog/inkwell/internal/services/token"
)

// Login-failure codes surfaced to the login page. Fixed vocabulary; anything
// more specific stays in the logs.
const (
	errCodeNoCode       = "no_code"
	errCodeOAuthFailed  = "oauth_failed"
	errCodeAccessDenied = "access_denied"
)

// AuthHandler handles the OAuth login flow and session endpoints
type AuthHandler struct {
	resolver   *github.Resolver
	codec      *token.Codec
	loginPath  string
	production bool
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(resolver *github.Resolver, codec *token.Codec, production bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		resolver:   resolver,
		codec:      codec,
		loginPath:  "/auth/login",
		production: production,
		logger:     logger,
	}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/github/login", h.GetGitHubLogin).Methods("GET")
	r.HandleFunc("/github/callback", h.GetGitHubCallback).Methods("GET")
	r.HandleFunc("/me", h.GetMe).Methods("GET")
	r.HandleFunc("/logout", h.PostLogout).Methods("POST")
}

// GetGitHubLogin starts the OAuth flow with a full-page redirect to GitHub's
// authorize endpoint. The optional redirect query parameter rides along as
// the opaque state and becomes the post-login destination.
func (h *AuthHandler) GetGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := sanitizeRedirectTarget(r.URL.Query().Get("redirect"))
	http.Redirect(w, r, h.resolver.AuthCodeURL(state), http.StatusFound)
}

// GetGitHubCallback completes the OAuth flow: exchanges the code, derives the
// role, issues the session credential, and sets the cookie. Every failure
// redirects back to the login page with a coded error; no cookie is ever set
// on a failed login.
func (h *AuthHandler) GetGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.Warn("oauth_provider_error",
			zap.String("error", logpkg.SanitizeString(providerErr, 200)),
		)
		h.redirectWithError(w, r, errCodeAccessDenied, providerErr)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.logger.Warn("oauth_callback_without_code")
		h.redirectWithError(w, r, errCodeNoCode, "")
		return
	}

	claims, err := h.resolver.CompleteLogin(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth_login_failed", zap.Error(err))
		h.redirectWithError(w, r, errCodeOAuthFailed, err.Error())
		return
	}

	credential, err := h.codec.Issue(claims)
	if err != nil {
		h.logger.Error("credential_issue_failed", zap.Error(err))
		h.redirectWithError(w, r, errCodeOAuthFailed, err.Error())
		return
	}

	h.logger.Info("login_completed",
		zap.String("login", claims.Login),
		zap.String("role", string(claims.Role)),
		zap.Int("permissions", len(claims.Permissions)),
	)

	target := sanitizeRedirectTarget(query.Get("state"))
	if target == "" {
		if claims.Role == models.RoleOwnerAdmin {
			target = "/admin"
		} else {
			target = "/"
		}
	}

	http.SetCookie(w, token.SessionCookie(credential, h.production))
	http.Redirect(w, r, target, http.StatusFound)
}

// GetMe returns the client-safe identity for the current session, or 401
// when the credential is absent or fails verification. A failing credential
// is cleared so the browser stops presenting it.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	credential := token.FromRequest(r)
	if credential == "" {
		respondJSONError(w, http.StatusUnauthorized, "Not authenticated", "No session credential")
		return
	}

	claims, err := h.codec.Verify(credential)
	if err != nil {
		h.logger.Info("me_credential_rejected", zap.Error(err))
		http.SetCookie(w, token.ClearedSessionCookie(h.production))
		respondJSONError(w, http.StatusUnauthorized, "Invalid session", "Credential verification failed")
		return
	}

	respondJSON(w, http.StatusOK, claims.Identity())
}

// PostLogout clears the session cookie. The credential itself stays valid
// until expiry; logout only stops presenting it.
func (h *AuthHandler) PostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, token.ClearedSessionCookie(h.production))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code, detail string) {
	target := h.loginPath + "?error=" + url.QueryEscape(code)
	// Human-readable detail helps local debugging but must not leak in
	// production.
	if detail != "" && !h.production {
		target += "&details=" + url.QueryEscape(detail)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// sanitizeRedirectTarget accepts only same-site absolute paths, defeating
// open-redirect attempts through the state parameter.
func sanitizeRedirectTarget(target string) string {
	if target == "" {
		return ""
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return ""
	}
	if strings.ContainsAny(target, "\\\r\n") {
		return ""
	}
	return target
}
