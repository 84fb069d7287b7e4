package models

// Claims is the full payload of a session credential: the authenticated
// subject's identity plus the authorization facts derived at login time.
// Claims are derived once per login and trusted as signed for the
// credential's lifetime; they are never re-derived from cookie data.
type Claims struct {
	SubjectID   string       `json:"sub"`
	Login       string       `json:"login"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	AvatarURL   string       `json:"avatar_url"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsRepoOwner bool         `json:"is_repo_owner"`

	// GitHubToken is the upstream access token, retained only for follow-up
	// GitHub API calls on the user's behalf. It must never be exposed to the
	// client outside the signed cookie.
	GitHubToken string `json:"-"`

	// TokenID is the credential id (jti). There is no server-side revocation
	// list today, but carrying an id means a denylist can be added later
	// without changing the token format.
	TokenID string `json:"jti,omitempty"`
}

// Identity is the claims subset safe to expose to the client. It excludes
// the upstream GitHub token.
type Identity struct {
	ID          string       `json:"id"`
	Login       string       `json:"login"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	AvatarURL   string       `json:"avatar_url"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsRepoOwner bool         `json:"is_repo_owner"`
}

// Identity returns the client-safe subset of the claims.
func (c *Claims) Identity() *Identity {
	perms := make([]Permission, len(c.Permissions))
	copy(perms, c.Permissions)
	return &Identity{
		ID:          c.SubjectID,
		Login:       c.Login,
		Name:        c.Name,
		Email:       c.Email,
		AvatarURL:   c.AvatarURL,
		Role:        c.Role,
		Permissions: perms,
		IsRepoOwner: c.IsRepoOwner,
	}
}
