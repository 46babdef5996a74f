package models

import (
	"time"

	"github.com/homedesigner/auth_service/pkg/authz"
)

// Principal is the identity embedded in every token.
type Principal struct {
	UserID string
	Role   authz.Role
}

// User is the public view of a user record owned by user-management.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Nickname  string     `json:"nickname"`
	Role      authz.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role}
}

type CreateUser struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Nickname string     `json:"nickname"`
	Role     authz.Role `json:"role"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the per-user record of the single current refresh token.
// An empty RefreshToken means the user is signed out.
type Session struct {
	UserID       string
	RefreshToken string
	CreatedAt    time.Time
}
