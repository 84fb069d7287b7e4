package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/inkwell-blog/inkwell/internal/middleware"
	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/services/token"
	"github.com/inkwell-blog/inkwell/internal/session"
)

// newServerStack builds a router with the same middleware chain the server
// wires in main, so client flows are exercised against what actually runs in
// front of the handlers.
func newServerStack(t *testing.T, h *AuthHandler, codec *token.Codec) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	r := mux.NewRouter()
	r.Use(middleware.SecurityHeaders(false))
	r.Use(middleware.CORS("http://localhost:3000"))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.Audit(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Gate(codec, middleware.DefaultGateConfig(false), logger))

	h.RegisterRoutes(r.PathPrefix("/api/auth").Subrouter())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionClientAgainstServerStack(t *testing.T) {
	t.Parallel()

	h, codec := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)
	srv := newServerStack(t, h, codec)

	credential, err := codec.Issue(&models.Claims{
		SubjectID:   "7",
		Login:       "octocat",
		Role:        models.RoleOwnerAdmin,
		Permissions: models.AllPermissions(),
		IsRepoOwner: true,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	store, err := session.NewStore(srv.URL, session.WithCredential(credential))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ctx := context.Background()

	identity, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if identity == nil || identity.Login != "octocat" {
		t.Fatalf("identity = %+v, want octocat", identity)
	}

	// Logout is a bare POST with no body; the full chain must accept it.
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("Logout through the middleware chain: %v", err)
	}

	// The cleared cookie propagated through the jar, so a fresh fetch is
	// unauthenticated.
	identity, err = store.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh after logout: %v", err)
	}
	if identity != nil {
		t.Errorf("identity after logout = %+v, want nil", identity)
	}
}

func TestSessionClientUnauthenticatedAgainstServerStack(t *testing.T) {
	t.Parallel()

	h, codec := newTestAuthHandler(t, &fakeGitHub{login: "octocat"}, false)
	srv := newServerStack(t, h, codec)

	store, err := session.NewStore(srv.URL)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	identity, err := store.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v, want nil without a credential", identity)
	}

	if got, err := store.HasPermission(context.Background(), models.PermWritePosts); err != nil || got {
		t.Errorf("HasPermission = (%v, %v), want (false, nil)", got, err)
	}
}
