package token

import (
	"net/http"
	"time"
)

// CookieName is the session cookie carrying the signed credential.
const CookieName = "auth_token"

// SessionCookie builds the cookie that carries a freshly issued credential.
// HttpOnly and SameSite=Lax always; Secure only outside local development so
// the flow still works over plain http on localhost.
func SessionCookie(credential string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    credential,
		Path:     "/",
		MaxAge:   int(TTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedSessionCookie builds a cookie that expires the session immediately.
// Used on logout and whenever verification fails, so a bad credential is
// never left behind.
func ClearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest extracts the credential from the session cookie, returning ""
// when absent.
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
