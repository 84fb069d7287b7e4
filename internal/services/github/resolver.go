// Package github resolves an authenticated identity from a GitHub OAuth
// authorization code: code exchange, profile fetch, collaborator check on the
// configured content repository, and email resolution.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"

	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/policy"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	apiAccept         = "application/vnd.github.v3+json"
	userAgent         = "inkwell/1.0"

	// Each upstream call is bounded so a slow provider cannot hang a login.
	requestTimeout = 10 * time.Second
)

var (
	// ErrExchange indicates the code-for-token exchange failed or returned
	// no usable access token.
	ErrExchange = errors.New("github token exchange failed")
	// ErrProfileFetch indicates the authenticated profile could not be read.
	ErrProfileFetch = errors.New("github profile fetch failed")
)

// Config holds the GitHub app credentials and the content repository the
// authorization policy is derived from.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RepoOwner    string
	RepoName     string

	// Endpoint overrides for tests. Zero values select the real GitHub
	// endpoints.
	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// Resolver completes GitHub logins. It holds no per-request state; all
// outcome lives in the returned claims.
type Resolver struct {
	oauth     *oauth2.Config
	apiBase   string
	repoOwner string
	repoName  string
	client    *http.Client
	logger    *zap.Logger
}

// NewResolver validates the configuration and builds a resolver. Missing
// credentials or repository coordinates are a configuration error surfaced
// immediately, not at first login.
func NewResolver(cfg Config, logger *zap.Logger) (*Resolver, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("github client id and secret are required")
	}
	if cfg.RepoOwner == "" || cfg.RepoName == "" {
		return nil, fmt.Errorf("github repository owner and name are required")
	}

	endpoint := githubendpoint.Endpoint
	if cfg.AuthURL != "" && cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}

	return &Resolver{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"repo", "read:org", "user:email"},
			Endpoint:     endpoint,
		},
		apiBase:   apiBase,
		repoOwner: cfg.RepoOwner,
		repoName:  cfg.RepoName,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    logger,
	}, nil
}

// AuthCodeURL returns the GitHub authorize URL for the login redirect. The
// state parameter is echoed back verbatim and used only as the post-login
// redirect target.
func (r *Resolver) AuthCodeURL(state string) string {
	return r.oauth.AuthCodeURL(state)
}

// RepoOwner returns the configured repository owner login.
func (r *Resolver) RepoOwner() string {
	return r.repoOwner
}

type profile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

type emailEntry struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// CompleteLogin exchanges the authorization code, fetches the profile,
// derives the role from the repository relationship, and resolves an email.
// Collaborator and email sub-lookups are non-fatal and degrade to the reader
// role and a placeholder address respectively. Nothing is persisted
// server-side; a failed login leaves no partial session behind.
func (r *Resolver) CompleteLogin(ctx context.Context, code string) (*models.Claims, error) {
	accessToken, err := r.exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	p, err := r.fetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	isCollaborator := false
	if p.Login != r.repoOwner {
		isCollaborator = r.isCollaborator(ctx, accessToken, p.Login)
	}
	grant := policy.RoleFor(p.Login, r.repoOwner, isCollaborator)

	name := p.Name
	if name == "" {
		name = p.Login
	}

	return &models.Claims{
		SubjectID:   fmt.Sprintf("%d", p.ID),
		Login:       p.Login,
		Name:        name,
		Email:       r.resolveEmail(ctx, accessToken, p),
		AvatarURL:   p.AvatarURL,
		Role:        grant.Role,
		Permissions: grant.Permissions,
		IsRepoOwner: grant.IsRepoOwner,
		GitHubToken: accessToken,
		TokenID:     uuid.NewString(),
	}, nil
}

func (r *Resolver) exchange(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)

	tok, err := r.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrExchange, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrExchange)
	}
	return tok.AccessToken, nil
}

func (r *Resolver) fetchProfile(ctx context.Context, accessToken string) (*profile, error) {
	resp, err := r.apiGet(ctx, accessToken, "/user")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetch, resp.StatusCode)
	}

	var p profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileFetch, err)
	}
	if p.Login == "" {
		return nil, fmt.Errorf("%w: profile has no login", ErrProfileFetch)
	}
	return &p, nil
}

// isCollaborator checks the login against the configured repository. GitHub
// answers 204 for a collaborator and 404 otherwise. Any failure here is
// non-fatal; the login proceeds with the reader default.
func (r *Resolver) isCollaborator(ctx context.Context, accessToken, login string) bool {
	path := fmt.Sprintf("/repos/%s/%s/collaborators/%s", r.repoOwner, r.repoName, login)
	resp, err := r.apiGet(ctx, accessToken, path)
	if err != nil {
		r.logger.Warn("collaborator_check_failed",
			zap.String("login", login),
			zap.Error(err),
		)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusNoContent
}

// resolveEmail prefers the public profile email, then the primary entry from
// the email list, then the first entry, then a synthesized placeholder. The
// email list lookup failing is non-fatal.
func (r *Resolver) resolveEmail(ctx context.Context, accessToken string, p *profile) string {
	if p.Email != "" {
		return p.Email
	}

	placeholder := fmt.Sprintf("%s@github.local", p.Login)

	resp, err := r.apiGet(ctx, accessToken, "/user/emails")
	if err != nil {
		r.logger.Warn("email_lookup_failed",
			zap.String("login", p.Login),
			zap.Error(err),
		)
		return placeholder
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return placeholder
	}

	var entries []emailEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return placeholder
	}

	for _, e := range entries {
		if e.Primary && e.Email != "" {
			return e.Email
		}
	}
	if len(entries) > 0 && entries[0].Email != "" {
		return entries[0].Email
	}
	return placeholder
}

// apiGet issues an authenticated GitHub API request. The client timeout
// bounds the whole call, body included.
func (r *Resolver) apiGet(ctx context.Context, accessToken, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiBase+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", apiAccept)
	req.Header.Set("User-Agent", userAgent)

	return r.client.Do(req)
}
