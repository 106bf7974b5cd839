package models

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a stored or transported role name into a Role.
// Unknown names are rejected instead of being treated as a plain user.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

type User struct {
	ID        string
	Email     string
	PassHash  []byte
	Role      Role
	CreatedAt time.Time
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Identity is the authenticated caller as established from an access token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// UserRef is the public projection returned by user search.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
