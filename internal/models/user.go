package models

import "time"

// Role is the access level carried by a user and by the session token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"` // don’t expose hash
	Role              Role      `json:"role"`
	IsVerified        bool      `json:"is_verified"`
	VerificationToken *string   `json:"-"` // nil once verified
	CreatedAt         time.Time `json:"created_at"`
}

// PublicUser is the only user view that leaves the service.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Role: u.Role}
}
