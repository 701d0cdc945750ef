package domain

import "time"

// Role is the authorization level carried by a user and their tokens.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// ResolveRequestedRole maps a client supplied role to the effective one.
// Only the exact string "admin" yields RoleAdmin; everything else is a citizen.
func ResolveRequestedRole(requested string) Role {
	if Role(requested) == RoleAdmin {
		return RoleAdmin
	}
	return RoleCitizen
}

// User represents an authenticated user of the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the subject asserted by a verified session token.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
