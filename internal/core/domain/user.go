package domain

import (
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole converts raw input into a Role. Matching is exact: "admin" is
// rejected just like any other unknown value.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", Invalid("role", "must be one of: ADMIN USER")
	}
	return r, nil
}

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Caller is the identity the authentication layer hands to every ledger
// operation. The core trusts it without re-verifying credentials.
type Caller struct {
	ID   string
	Name string
	Role Role
}

// Authenticated reports whether the caller carries a usable identity.
func (c Caller) Authenticated() bool {
	return c.ID != "" && c.Role.Valid()
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
