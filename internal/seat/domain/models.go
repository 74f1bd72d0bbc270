// Package domain contains persistence models for per-app seat allocations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	SeatTypeTenant     = "tenant"
	SeatTypeLandlord   = "landlord"
	SeatTypeCaretaker  = "caretaker"
	SeatTypeManagement = "management"
)

// Allocation grants one user a seat in one application. An active
// allocation is necessary but not sufficient for application access.
type Allocation struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	ReceivingUserID snowflake.ID `gorm:"column:receiving_user_id;not null;index:ix_seats_user_app,priority:1"`
	AppID           string       `gorm:"column:app_id;type:text;not null;index:ix_seats_user_app,priority:2"`
	SeatType        string       `gorm:"type:text;not null"`
	IsActive        bool         `gorm:"not null;default:true"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Allocation) TableName() string { return "seat_allocations" }
