package models

import "time"

// Role is the closed set of roles the authentication service can assign.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// IsPrivileged reports whether the role bypasses chat membership and ownership checks.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin
}

// User is a row owned by the authentication service. The chat core only reads it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Role      Role      `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is the verified caller resolved from a bearer credential.
type Identity struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// IsPrivileged is a shorthand for Role.IsPrivileged.
func (i Identity) IsPrivileged() bool {
	return i.Role.IsPrivileged()
}
