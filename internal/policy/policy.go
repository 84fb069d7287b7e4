// Package policy maps a user's relationship to the content repository onto a
// role and capability set. It is pure: no I/O, no clock, no configuration
// lookup. Both the request gate and the session client consult this package,
// so server-side and client-side permission semantics cannot diverge.
package policy

import "github.com/inkwell-blog/inkwell/internal/models"

// Grant is the authorization outcome for one login.
type Grant struct {
	Role        models.Role
	Permissions []models.Permission
	IsRepoOwner bool
}

// RoleFor derives the grant for a login. The three branches are mutually
// exclusive: repository ownership takes precedence over collaborator status,
// which takes precedence over the reader default.
func RoleFor(login, repoOwner string, isCollaborator bool) Grant {
	if login != "" && login == repoOwner {
		return Grant{
			Role:        models.RoleOwnerAdmin,
			Permissions: models.AllPermissions(),
			IsRepoOwner: true,
		}
	}
	if isCollaborator {
		return Grant{
			Role:        models.RoleCollaborator,
			Permissions: models.CollaboratorPermissions(),
		}
	}
	return Grant{
		Role:        models.RoleReader,
		Permissions: models.ReaderPermissions(),
	}
}

// HasPermission reports whether a subject with the given role and capability
// set holds the requested capability. Owner-admin satisfies every capability.
func HasPermission(role models.Role, permissions []models.Permission, capability models.Permission) bool {
	if role == models.RoleOwnerAdmin {
		return true
	}
	for _, p := range permissions {
		if p == capability {
			return true
		}
	}
	return false
}

// ClaimsHavePermission is a convenience form of HasPermission for callers
// holding full claims.
func ClaimsHavePermission(c *models.Claims, capability models.Permission) bool {
	if c == nil {
		return false
	}
	return HasPermission(c.Role, c.Permissions, capability)
}

// IdentityHasPermission is the client-side form, operating on the safe
// identity subset returned by the current-user endpoint.
func IdentityHasPermission(id *models.Identity, capability models.Permission) bool {
	if id == nil {
		return false
	}
	return HasPermission(id.Role, id.Permissions, capability)
}
