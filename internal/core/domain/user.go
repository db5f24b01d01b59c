package domain

import "time"

// User models an account. Every user references exactly one Role.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"roleId"`
	Role         *Role     `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole reports whether the user's resolved role is the given one.
func (u *User) HasRole(name RoleName) bool {
	if u == nil || name == RoleUnknown {
		return false
	}
	return u.Role.Kind() == name
}

// UserUpdate carries the fields a partial user update may change.
// Nil fields are left untouched.
type UserUpdate struct {
	Username     *string
	PasswordHash *string
	RoleID       *int64
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.PasswordHash == nil && u.RoleID == nil
}

// Claims is the identity carried inside a bearer token.
type Claims struct {
	UserID int64
	Role   string
}
