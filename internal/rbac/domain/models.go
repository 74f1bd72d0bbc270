// Package domain contains persistence models for roles, permissions and
// role grants.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Permission is one named capability, e.g. "payments.create". The catalog is
// append-only: renaming a permission referenced by a live role would break
// existing grants.
type Permission struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Name        string       `gorm:"type:text;not null;uniqueIndex"`
	Description string       `gorm:"type:text"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Permission) TableName() string { return "permissions" }

// Role bundles permissions within an organization.
type Role struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;index:ux_roles_org_name,priority:1"`
	Name      string       `gorm:"type:text;not null;index:ux_roles_org_name,priority:2"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Role) TableName() string { return "roles" }

// RolePermission joins roles to catalog permissions.
type RolePermission struct {
	RoleID       snowflake.ID `gorm:"column:role_id;primaryKey"`
	PermissionID snowflake.ID `gorm:"column:permission_id;primaryKey"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// Grant links a user to a role within an organization. A grant past its
// expiry is treated as absent at evaluation time but kept for audit; expiry
// is a computed predicate, never a stored state transition.
type Grant struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;index:ix_grants_org_user,priority:1"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index:ix_grants_org_user,priority:2"`
	RoleID    snowflake.ID `gorm:"column:role_id;not null;index"`
	ExpiresAt *time.Time   `gorm:""`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Grant) TableName() string { return "user_roles" }

// ActiveAt reports whether the grant is valid at the given instant. An
// expiry exactly equal to now is still valid at that instant.
func (g Grant) ActiveAt(now time.Time) bool {
	if g.ExpiresAt == nil {
		return true
	}
	return !g.ExpiresAt.Before(now)
}
