package models

// Role is the authorization tier assigned to an authenticated user.
// Exactly one role is held at a time; roles are never combined.
type Role string

const (
	// RoleOwnerAdmin is held by the configured repository owner and grants
	// every capability.
	RoleOwnerAdmin Role = "owner-admin"
	// RoleCollaborator is held by users with write access to the content
	// repository, short of ownership.
	RoleCollaborator Role = "collaborator"
	// RoleReader is the default tier for any other authenticated user.
	RoleReader Role = "reader"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwnerAdmin, RoleCollaborator, RoleReader:
		return true
	default:
		return false
	}
}

// Permission is a capability string granted to a role.
type Permission string

const (
	PermReadPosts       Permission = "read:posts"
	PermWritePosts      Permission = "write:posts"
	PermDeletePosts     Permission = "delete:posts"
	PermManageUsers     Permission = "manage:users"
	PermManageSettings  Permission = "manage:settings"
	PermManageMedia     Permission = "manage:media"
	PermManageComments  Permission = "manage:comments"
	PermManageAnalytics Permission = "manage:analytics"
	PermManageSEO       Permission = "manage:seo"
	PermManageAds       Permission = "manage:ads"
)

// AllPermissions returns the maximal capability set, granted to owner-admin.
func AllPermissions() []Permission {
	return []Permission{
		PermReadPosts,
		PermWritePosts,
		PermDeletePosts,
		PermManageUsers,
		PermManageSettings,
		PermManageMedia,
		PermManageComments,
		PermManageAnalytics,
		PermManageSEO,
		PermManageAds,
	}
}

// CollaboratorPermissions returns the capability set granted to collaborators.
func CollaboratorPermissions() []Permission {
	return []Permission{PermWritePosts, PermManageMedia}
}

// ReaderPermissions returns the capability set granted to readers.
func ReaderPermissions() []Permission {
	return []Permission{PermReadPosts}
}
