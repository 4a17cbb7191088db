package domain

import (
	"strings"
	"time"
)

// Role is one of the three closed privilege tiers.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleSales   Role = "SALES"
)

var roleDescriptions = map[Role]string{
	RoleAdmin:   "Administrator",
	RoleManager: "Manager",
	RoleSales:   "Sales",
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleDescriptions[r]
	return ok
}

// Description returns the display name of the role, or "" for unknown roles.
func (r Role) Description() string {
	return roleDescriptions[r]
}

// ParseRole normalises s and returns the matching role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// UserStatus is the account lifecycle flag.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User is the credential-store record.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	RealName     string     `json:"realName"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	Department   string     `json:"department,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	Status       UserStatus `json:"status"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Active reports whether the account may authenticate.
func (u *User) Active() bool {
	return u.Status == StatusActive
}

// Identity projects the user onto the request-scoped principal.
func (u *User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Username:   u.Username,
		Role:       u.Role,
		Department: u.Department,
		Active:     u.Active(),
	}
}

// Ownership makes user accounts owned resources: a user owns itself and
// belongs to its own department.
func (u *User) Ownership() Ownership {
	return Ownership{Kind: KindUser, OwnerID: u.ID, OwnerDepartment: u.Department}
}

// Identity is the authenticated principal for one request. It is built
// fresh per request and never persisted.
type Identity struct {
	ID         string
	Username   string
	Role       Role
	Department string
	Active     bool
}
