package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/services/github"
	"github.com/inkwell-blog/inkwell/internal/services/token"
)

// fakeGitHub serves just enough of the GitHub API for a login to complete.
type fakeGitHub struct {
	login              string
	tokenBody          string
	collaboratorStatus int
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		body := f.tokenBody
		if body == "" {
			body = "access_token=gho_test&token_type=bearer"
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "login": f.login, "avatar_url": "https://avatars.example.com/7",
		})
	})
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		status := f.collaboratorStatus
		if status == 0 {
			status = http.StatusNotFound
		}
		w.WriteHeader(status)
	})
	return mux
}

func newTestAuthHandler(t *testing.T, f *fakeGitHub, production bool) (*AuthHandler, *token.Codec) {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	resolver, err := github.NewResolver(github.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RepoOwner:    "octocat",
		RepoName:     "blog",
		AuthURL:      srv.URL + "/login/oauth/authorize",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		APIBaseURL:   srv.URL,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	codec, err := token.NewCodec("handler-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	return NewAuthHandler(resolver, codec, production, zap.NewNop()), codec
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == token.CookieName {
			return c
		}
	}
	return nil
}

func TestGetGitHubLoginRedirectsToAuthorize(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	req := httptest.NewRequest("GET", "/api/auth/github/login?redirect=/admin/posts", nil)
	w := httptest.NewRecorder()

	h.GetGitHubLogin(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "client_id=client-id") {
		t.Errorf("Location %q missing client id", loc)
	}
	if !strings.Contains(loc, "state=%2Fadmin%2Fposts") {
		t.Errorf("Location %q missing state", loc)
	}
}

func TestCallbackOwnerLogin(t *testing.T) {
	t.Parallel()

	h, codec := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	req := httptest.NewRequest("GET", "/api/auth/github/callback?code=good", nil)
	w := httptest.NewRecorder()

	h.GetGitHubCallback(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	// No explicit state: the owner's default destination is the admin panel.
	if got := w.Header().Get("Location"); got != "/admin" {
		t.Errorf("Location = %q, want /admin", got)
	}

	c := sessionCookie(t, w)
	if c == nil {
		t.Fatal("expected a session cookie")
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if c.Secure {
		t.Error("cookie must not be Secure outside production")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}

	claims, err := codec.Verify(c.Value)
	if err != nil {
		t.Fatalf("cookie does not contain a verifiable credential: %v", err)
	}
	if claims.Role != models.RoleOwnerAdmin {
		t.Errorf("Role = %q, want owner-admin", claims.Role)
	}
}

func TestCallbackReaderDefaultRedirect(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t, &fakeGitHub{login: "visitor"}, false)

	req := httptest.NewRequest("GET", "/api/auth/github/callback?code=good", nil)
	w := httptest.NewRecorder()

	h.GetGitHubCallback(w, req)

	if got := w.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}
}

func TestCallbackHonorsState(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	req := httptest.NewRequest("GET", "/api/auth/github/callback?code=good&state=%2Fadmin%2Fmedia", nil)
	w := httptest.NewRecorder()

	h.GetGitHubCallback(w, req)

	if got := w.Header().Get("Location"); got != "/admin/media" {
		t.Errorf("Location = %q, want /admin/media", got)
	}
}

func TestCallbackRejectsExternalState(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	for _, state := range []string{"https://evil.example.com", "//evil.example.com", "/admin\\evil"} {
		req := httptest.NewRequest("GET", "/api/auth/github/callback?code=good&state="+url.QueryEscape(state), nil)
		w := httptest.NewRecorder()

		h.GetGitHubCallback(w, req)

		if got := w.Header().Get("Location"); got != "/admin" {
			t.Errorf("state %q: Location = %q, want the role default", state, got)
		}
	}
}

func TestCallbackErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		fake     *fakeGitHub
		wantCode string
	}{
		{
			name:     "provider reported error",
			target:   "/api/auth/github/callback?error=access_denied",
			fake:     &fakeGitHub{login: "octocat"},
			wantCode: "access_denied",
		},
		{
			name:     "missing code",
			target:   "/api/auth/github/callback",
			fake:     &fakeGitHub{login: "octocat"},
			wantCode: "no_code",
		},
		{
			name:     "exchange failure",
			target:   "/api/auth/github/callback?code=bad",
			fake:     &fakeGitHub{login: "octocat", tokenBody: "error=bad_verification_code"},
			wantCode: "oauth_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newTestAuthHandler(t, tt.fake, false)

			req := httptest.NewRequest("GET", tt.target, nil)
			w := httptest.NewRecorder()

			h.GetGitHubCallback(w, req)

			if w.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", w.Code)
			}
			loc, err := url.Parse(w.Header().Get("Location"))
			if err != nil {
				t.Fatalf("bad Location: %v", err)
			}
			if loc.Path != "/auth/login" {
				t.Errorf("Location path = %q, want /auth/login", loc.Path)
			}
			if got := loc.Query().Get("error"); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
			if sessionCookie(t, w) != nil {
				t.Error("no cookie may be set on a failed login")
			}
		})
	}
}

func TestCallbackHidesDetailsInProduction(t *testing.T) {
	t.Parallel()

	fake := &fakeGitHub{login: "octocat", tokenBody: "error=bad_verification_code"}

	hDev, _ := newTestAuthHandler(t, fake, false)
	hProd, _ := newTestAuthHandler(t, fake, true)

	for _, tt := range []struct {
		h           *AuthHandler
		wantDetails bool
	}{
		{h: hDev, wantDetails: true},
		{h: hProd, wantDetails: false},
	} {
		req := httptest.NewRequest("GET", "/api/auth/github/callback?code=bad", nil)
		w := httptest.NewRecorder()

		tt.h.GetGitHubCallback(w, req)

		loc, err := url.Parse(w.Header().Get("Location"))
		if err != nil {
			t.Fatalf("bad Location: %v", err)
		}
		hasDetails := loc.Query().Get("details") != ""
		if hasDetails != tt.wantDetails {
			t.Errorf("details present = %v, want %v", hasDetails, tt.wantDetails)
		}
	}
}

func TestGetMe(t *testing.T) {
	t.Parallel()

	h, codec := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	credential, err := codec.Issue(&models.Claims{
		SubjectID:   "7",
		Login:       "octocat",
		Name:        "The Octocat",
		Email:       "octocat@github.local",
		Role:        models.RoleOwnerAdmin,
		Permissions: models.AllPermissions(),
		IsRepoOwner: true,
		GitHubToken: "gho_secret_upstream",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: token.CookieName, Value: credential})
	w := httptest.NewRecorder()

	h.GetMe(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "gho_secret_upstream") {
		t.Error("response must not expose the upstream token")
	}

	var body struct {
		Success bool             `json:"success"`
		Data    *models.Identity `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("expected success envelope")
	}
	if body.Data == nil || body.Data.Login != "octocat" {
		t.Errorf("Data = %+v, want octocat identity", body.Data)
	}
	if body.Data.Role != models.RoleOwnerAdmin {
		t.Errorf("Role = %q, want owner-admin", body.Data.Role)
	}
}

func TestGetMeUnauthenticated(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	w := httptest.NewRecorder()

	h.GetMe(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGetMeInvalidCredentialClearsCookie(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: token.CookieName, Value: "garbage"})
	w := httptest.NewRecorder()

	h.GetMe(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	c := sessionCookie(t, w)
	if c == nil || c.MaxAge >= 0 {
		t.Error("expected the bad cookie to be cleared")
	}
}

func TestPostLogoutClearsCookie(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	w := httptest.NewRecorder()

	h.PostLogout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	c := sessionCookie(t, w)
	if c == nil || c.MaxAge >= 0 || c.Value != "" {
		t.Error("expected the session cookie to be cleared")
	}

	// A follow-up whoami without the cookie is unauthenticated.
	meReq := httptest.NewRequest("GET", "/api/auth/me", nil)
	meW := httptest.NewRecorder()
	h.GetMe(meW, meReq)
	if meW.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: status = %d, want 401", meW.Code)
	}
}
