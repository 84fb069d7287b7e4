package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/request"
	"github.com/inkwell-blog/inkwell/internal/services/token"
)

func newGateCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec("gate-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func issueFor(t *testing.T, codec *token.Codec, role models.Role) string {
	t.Helper()

	var perms []models.Permission
	isOwner := false
	switch role {
	case models.RoleOwnerAdmin:
		perms = models.AllPermissions()
		isOwner = true
	case models.RoleCollaborator:
		perms = models.CollaboratorPermissions()
	case models.RoleReader:
		perms = models.ReaderPermissions()
	}

	credential, err := codec.Issue(&models.Claims{
		SubjectID:   "42",
		Login:       "subject",
		Role:        role,
		Permissions: perms,
		IsRepoOwner: isOwner,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return credential
}

func gateHandler(t *testing.T, codec *token.Codec) (http.Handler, *bool, **models.Claims) {
	t.Helper()

	reached := false
	var seen *models.Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		seen = request.ClaimsFromContext(r)
		w.WriteHeader(http.StatusOK)
	})

	return Gate(codec, DefaultGateConfig(false), zap.NewNop())(inner), &reached, &seen
}

func TestGatePublicPathsProceed(t *testing.T) {
	t.Parallel()

	codec := newGateCodec(t)
	handler, reached, _ := gateHandler(t, codec)

	for _, path := range []string{"/", "/posts/hello", "/api/auth/me", "/administer"} {
		*reached = false
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if !*reached {
			t.Errorf("%s: expected request to proceed", path)
		}
	}
}

func TestGateUnauthenticatedRedirectsToLogin(t *testing.T) {
	t.Parallel()

	codec := newGateCodec(t)
	handler, reached, _ := gateHandler(t, codec)

	req := httptest.NewRequest("GET", "/admin", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if *reached {
		t.Error("request should not reach the handler")
	}
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if got, want := w.Header().Get("Location"), "/auth/login?redirect=%2Fadmin"; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func TestGateInvalidCredentialClearsCookieAndRedirects(t *testing.T) {
	t.Parallel()

	codec := newGateCodec(t)
	handler, reached, _ := gateHandler(t, codec)

	req := httptest.NewRequest("GET", "/admin/posts", nil)
	req.AddCookie(&http.Cookie{Name: token.CookieName, Value: "tampered"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if *reached {
		t.Error("request should not reach the handler")
	}
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if got, want := w.Header().Get("Location"), "/auth/login?redirect=%2Fadmin%2Fposts"; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == token.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be cleared")
	}
}

func TestGateCredentialFromOtherKeyRejected(t *testing.T) {
	t.Parallel()

	codec := newGateCodec(t)
	other, err := token.NewCodec("some-other-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	handler, reached, _ := gateHandler(t, codec)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: token.CookieName, Value: issueFor(t, other, models.RoleOwnerAdmin)})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if *reached {
		t.Error("foreign-signed credential must not pass the gate")
	}
	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
}

func TestGateReaderOnOwnerOnlyPathRedirectsToUnauthorized(t *testing.T) {
	t.Parallel()

	codec := newGateCodec(t)
	handler, reached, _ := gateHandler(t, codec)

	for _, role := range []models.Role{models.RoleReader, models.RoleCollaborator} {
		*reached = false
		req := httptest.NewRequest("GET", "/setup", nil)
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: issueFor(t, codec, role)})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if *reached {
			t.Errorf("%s: request should not reach the handler", role)
		}
		if w.Code != http.StatusFound {
			t.Fatalf("%s: status = %d, want 302", role, w.Code)
		}
		// An authenticated user with an insufficient role gets the
		// unauthorized page, not another login prompt.
		if got := w.Header().Get("Location"); got != "/unauthorized" {
			t.Errorf("%s: Location = %q, want /unauthorized", role, got)
		}
	}
}

func TestGateValidSessionProceedsWithClaims(t *testing.T) {
	t.Parallel()

	codec := newGateCodec(t)
	handler, reached, seen := gateHandler(t, codec)

	tests := []struct {
		name string
		role models.Role
		path string
	}{
		{name: "reader on plain admin path", role: models.RoleReader, path: "/admin"},
		{name: "collaborator on plain admin path", role: models.RoleCollaborator, path: "/admin/posts"},
		{name: "owner on owner-only path", role: models.RoleOwnerAdmin, path: "/setup"},
		{name: "owner on settings", role: models.RoleOwnerAdmin, path: "/admin/settings"},
	}

	for _, tt := range tests {
		*reached = false
		*seen = nil
		req := httptest.NewRequest("GET", tt.path, nil)
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: issueFor(t, codec, tt.role)})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if !*reached {
			t.Errorf("%s: expected request to proceed", tt.name)
			continue
		}
		if *seen == nil {
			t.Errorf("%s: expected claims in request context", tt.name)
			continue
		}
		if (*seen).Role != tt.role {
			t.Errorf("%s: context role = %q, want %q", tt.name, (*seen).Role, tt.role)
		}
	}
}
