// Package domain contains persistence models for organizations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Organization owns users via membership records. Soft-deleted, never purged.
type Organization struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	Name      string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Organization) TableName() string { return "organizations" }

// Membership links a user to an organization.
type Membership struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;index:ux_org_members,priority:1"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index:ux_org_members,priority:2"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Membership) TableName() string { return "organization_members" }
