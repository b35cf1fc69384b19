package model

import "time"

const (
	RoleLeader   = "leader"
	RoleCoLeader = "co_leader"
	RoleVisor    = "visor"
)

// Roles lists all assignable roles in permission order.
var Roles = []string{RoleLeader, RoleCoLeader, RoleVisor}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	FirstLogin  bool      `json:"first_login"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatorName string    `json:"creator_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsRoot reports whether this is the bootstrap leader account. The root
// account has no creator and cannot be modified or deactivated.
func (u *User) IsRoot() bool {
	return u.CreatedBy == nil
}
