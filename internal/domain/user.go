package domain

import "time"

// User is the domain model for a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Address      string
	City         string
	Phone        string
	Enabled      bool
	Authorities  []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasAuthority reports whether the account holds the given role.
func (u *User) HasAuthority(role Role) bool {
	for _, held := range u.Authorities {
		if held == role {
			return true
		}
	}
	return false
}

// Identity derives the token-embedded identity for the user.
func (u *User) Identity() *Identity {
	return &Identity{
		Subject:     u.Username,
		Authorities: append([]Role(nil), u.Authorities...),
	}
}
