// Package domain contains persistence models for users of the FinTuttO apps.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is an account holder. Users are deactivated, never deleted.
type User struct {
	ID                snowflake.ID      `gorm:"primaryKey"`
	Email             string            `gorm:"type:text;not null;uniqueIndex"`
	DisplayName       string            `gorm:"type:text"`
	Role              string            `gorm:"type:text;not null;default:member"`
	BillingCustomerID *string           `gorm:"column:billing_customer_id;type:text"`
	Active            bool              `gorm:"not null;default:true"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user carries the platform admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
