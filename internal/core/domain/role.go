package domain

import "time"

// RoleName is the closed set of role names the access guard understands.
// Persisted names outside this set map to RoleUnknown and never satisfy a
// role check.
type RoleName string

const (
	RoleUnknown RoleName = ""
	RoleAdmin   RoleName = "ROLE_ADMIN"
	RoleUser    RoleName = "ROLE_USER"
)

// DefaultRole is assigned to every account created through signup.
const DefaultRole = RoleUser

// SeedRoles are created idempotently at startup.
var SeedRoles = []RoleName{RoleAdmin, RoleUser}

// ParseRoleName maps a persisted role name to its enumerated value.
func ParseRoleName(s string) (RoleName, bool) {
	switch RoleName(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return RoleUnknown, false
	}
}

func (r RoleName) String() string {
	return string(r)
}

// Role is a named permission group. Name is globally unique.
type Role struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Kind returns the enumerated role name, RoleUnknown for custom roles.
func (r *Role) Kind() RoleName {
	if r == nil {
		return RoleUnknown
	}
	kind, _ := ParseRoleName(r.Name)
	return kind
}
