// Package token signs and verifies the session credential carried in the
// auth cookie. The credential is self-contained: a single HS256 signature
// check is all the request gate needs, with no store lookup.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/inkwell-blog/inkwell/internal/models"
)

const (
	// TTL is the credential lifetime. There is no server-side revocation;
	// a credential stays valid until natural expiry.
	TTL = 7 * 24 * time.Hour
)

// ErrInvalidCredential is returned for every verification failure. Callers
// must not distinguish an expired credential from a tampered one; both force
// a re-login. The wrapped cause is for internal logging only.
var ErrInvalidCredential = errors.New("invalid or expired credential")

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("signing secret is required")

const (
	claimLogin       = "login"
	claimName        = "name"
	claimEmail       = "email"
	claimAvatarURL   = "avatar_url"
	claimRole        = "role"
	claimPermissions = "permissions"
	claimIsRepoOwner = "is_repo_owner"
	claimGitHubToken = "github_token"
)

// Codec issues and verifies session credentials with a symmetric key.
type Codec struct {
	key []byte
	ttl time.Duration

	// now is swappable for expiry tests
	now func() time.Time
}

// NewCodec creates a codec from the configured signing secret. An empty
// secret is a deployment error; there is deliberately no fallback default.
func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Codec{
		key: []byte(secret),
		ttl: TTL,
		now: time.Now,
	}, nil
}

// Issue serializes and signs the claims with issuedAt = now and
// expiresAt = now + TTL. A fresh credential id is assigned when the claims
// carry none.
func (c *Codec) Issue(claims *models.Claims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("claims are required")
	}
	if !claims.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", claims.Role)
	}

	tokenID := claims.TokenID
	if tokenID == "" {
		tokenID = uuid.NewString()
	}

	perms := make([]string, len(claims.Permissions))
	for i, p := range claims.Permissions {
		perms[i] = string(p)
	}

	now := c.now()
	tok, err := jwt.NewBuilder().
		Subject(claims.SubjectID).
		JwtID(tokenID).
		IssuedAt(now).
		Expiration(now.Add(c.ttl)).
		Claim(claimLogin, claims.Login).
		Claim(claimName, claims.Name).
		Claim(claimEmail, claims.Email).
		Claim(claimAvatarURL, claims.AvatarURL).
		Claim(claimRole, string(claims.Role)).
		Claim(claimPermissions, perms).
		Claim(claimIsRepoOwner, claims.IsRepoOwner).
		Claim(claimGitHubToken, claims.GitHubToken).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify checks the signature and expiry of a credential and returns the
// embedded claims. Every failure mode collapses into ErrInvalidCredential.
func (c *Codec) Verify(credential string) (*models.Claims, error) {
	tok, err := jwt.Parse([]byte(credential),
		jwt.WithKey(jwa.HS256, c.key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(c.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredential, err)
	}

	claims := &models.Claims{
		SubjectID:   tok.Subject(),
		TokenID:     tok.JwtID(),
		Login:       stringClaim(tok, claimLogin),
		Name:        stringClaim(tok, claimName),
		Email:       stringClaim(tok, claimEmail),
		AvatarURL:   stringClaim(tok, claimAvatarURL),
		Role:        models.Role(stringClaim(tok, claimRole)),
		GitHubToken: stringClaim(tok, claimGitHubToken),
	}

	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidCredential)
	}

	if v, ok := tok.Get(claimIsRepoOwner); ok {
		if b, ok := v.(bool); ok {
			claims.IsRepoOwner = b
		}
	}

	if v, ok := tok.Get(claimPermissions); ok {
		if arr, ok := v.([]any); ok {
			for _, item := range arr {
				if s, ok := item.(string); ok {
					claims.Permissions = append(claims.Permissions, models.Permission(s))
				}
			}
		}
	}

	return claims, nil
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
