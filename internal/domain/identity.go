package domain

// Identity is the authenticated subject plus its authority set. It is derived
// from the user record at token-mint time and trusted for the token lifetime.
type Identity struct {
	Subject     string
	Authorities []Role
}

// HasAuthority reports whether the identity holds the given role.
func (i *Identity) HasAuthority(role Role) bool {
	if i == nil {
		return false
	}
	for _, held := range i.Authorities {
		if held == role {
			return true
		}
	}
	return false
}

// HasAnyAuthority reports whether the identity holds at least one of the roles.
func (i *Identity) HasAnyAuthority(roles ...Role) bool {
	for _, role := range roles {
		if i.HasAuthority(role) {
			return true
		}
	}
	return false
}
