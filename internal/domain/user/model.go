package user

import (
	"time"

	"github.com/google/uuid"
)

// Statuses a user account can be in.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusLocked   = "locked"
)

// User maps to the app_user table. The password hash is never serialized.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Password     string     `db:"password" json:"-"`
	RealName     string     `db:"real_name" json:"realName"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Avatar       *string    `db:"avatar" json:"avatar,omitempty"`
	DepartmentID *string    `db:"department_id" json:"departmentId,omitempty"`
	RoleIDs      []string   `db:"role_ids" json:"roleIds"`
	Status       string     `db:"status" json:"status"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	LastLoginIP  *string    `db:"last_login_ip" json:"lastLoginIp,omitempty"`
	IsSuperAdmin bool       `db:"is_super_admin" json:"isSuperAdmin"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// ValidStatus reports whether s is a recognized account status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusLocked:
		return true
	default:
		return false
	}
}

// ListFilter narrows List queries. Zero values mean "no filter".
type ListFilter struct {
	Username     string
	RealName     string
	Phone        string
	Status       string
	DepartmentID string
}

// Stats holds account counts grouped by status.
type Stats struct {
	Total    int `json:"totalUsers"`
	Active   int `json:"activeUsers"`
	Inactive int `json:"inactiveUsers"`
	Locked   int `json:"lockedUsers"`
}
