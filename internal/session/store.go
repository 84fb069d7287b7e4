// Package session provides a client-side view of an authentication session
// against the blog service. It fetches the current identity once, caches it,
// and answers permission questions locally so callers do not round-trip to
// the server per check.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/policy"
	"github.com/inkwell-blog/inkwell/internal/services/token"
)

const defaultTimeout = 10 * time.Second

// Store caches the identity of the current session. The zero value is not
// usable; construct with NewStore.
//
// Three states are distinguishable: not yet fetched (first Current call hits
// the server), authenticated (cached identity), and unauthenticated (cached
// nil after a 401). Network failures are never cached as "logged out".
type Store struct {
	baseURL string
	client  *http.Client

	mu      sync.Mutex
	fetched bool
	current *models.Identity
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithCredential presents an existing session credential on every request
// instead of relying on browser-set cookies.
func WithCredential(credential string) Option {
	return func(s *Store) {
		u, err := url.Parse(s.baseURL)
		if err != nil || credential == "" {
			return
		}
		jar, err := cookiejar.New(nil)
		if err != nil {
			return
		}
		jar.SetCookies(u, []*http.Cookie{{Name: token.CookieName, Value: credential}})
		s.client.Jar = jar
	}
}

// NewStore creates a session store talking to the service at baseURL.
func NewStore(baseURL string, opts ...Option) (*Store, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("session store requires a base URL")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	s := &Store{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout, Jar: jar},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Current returns the identity of the logged-in user, or nil when the session
// is unauthenticated. The first call fetches from the server; the answer is
// cached until Refresh or Logout.
func (s *Store) Current(ctx context.Context) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetched {
		return s.current, nil
	}
	identity, err := s.fetchIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s.fetched = true
	s.current = identity
	return identity, nil
}

// Refresh discards the cached identity and fetches again.
func (s *Store) Refresh(ctx context.Context) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, err := s.fetchIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s.fetched = true
	s.current = identity
	return identity, nil
}

// LoginURL returns the URL that starts the OAuth flow. The optional redirect
// is where the browser lands after a successful login.
func (s *Store) LoginURL(redirect string) string {
	u := s.baseURL + "/api/auth/github/login"
	if redirect != "" {
		u += "?redirect=" + url.QueryEscape(redirect)
	}
	return u
}

// Logout ends the session server-side and drops the cached identity. A 401
// from the server still counts as logged out.
func (s *Store) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("building logout request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("logout failed with status %d", resp.StatusCode)
	}

	s.mu.Lock()
	s.fetched = true
	s.current = nil
	s.mu.Unlock()
	return nil
}

// HasPermission reports whether the current session may perform the given
// capability. Unauthenticated sessions hold no permissions.
func (s *Store) HasPermission(ctx context.Context, capability models.Permission) (bool, error) {
	identity, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	return policy.IdentityHasPermission(identity, capability), nil
}

func (s *Store) fetchIdentity(ctx context.Context) (*models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("building identity request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Data *models.Identity `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decoding identity response: %w", err)
		}
		if body.Data == nil {
			return nil, fmt.Errorf("identity response missing data")
		}
		return body.Data, nil
	case http.StatusUnauthorized:
		return nil, nil
	default:
		return nil, fmt.Errorf("identity request failed with status %d", resp.StatusCode)
	}
}
