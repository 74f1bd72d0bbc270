// Package domain contains the persisted access-decision log. Denials and
// configuration errors are recorded for later review; the log never feeds
// back into a decision.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	OutcomeDenied      = "denied"
	OutcomeConfigError = "config_error"
)

// AccessDecision is one logged denial or configuration error.
type AccessDecision struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OrgID      snowflake.ID `gorm:"column:org_id;index"`
	UserID     snowflake.ID `gorm:"column:user_id;not null;index"`
	AppID      string       `gorm:"column:app_id;type:text"`
	Permission string       `gorm:"type:text"`
	Operation  string       `gorm:"type:text;not null"`
	Outcome    string       `gorm:"type:text;not null"`
	Reason     string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AccessDecision) TableName() string { return "access_decisions" }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, decision *AccessDecision) error
}

// Recorder persists decisions without ever failing the caller.
type Recorder interface {
	Record(ctx context.Context, decision AccessDecision)
}
