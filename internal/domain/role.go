package domain

// Role is an authority label granting a capability.
type Role string

const (
	RoleUser  Role = "USER"
	RoleMod   Role = "MOD"
	RoleAdmin Role = "ADMIN"
)

// RoleNames converts roles to their string form for claims and storage.
func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return names
}

// RolesFromNames converts stored or claimed strings back into roles.
func RolesFromNames(names []string) []Role {
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, Role(name))
	}
	return roles
}
