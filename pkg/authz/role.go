// Package authz is the authorization guard shared by every service that
// delegates authentication to auth_service.
package authz

import "strings"

// Role is the access level carried inside a token.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// ParseRole maps a wire value to a Role. Anything unknown, including the
// empty string, becomes RoleUser.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Allows reports whether r passes the gate formed by allowed.
// An empty gate admits every role.
func (r Role) Allows(allowed []Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
