package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, allocation *Allocation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Allocation, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Allocation, error)
	HasActive(ctx context.Context, db *gorm.DB, userID snowflake.ID, appID string) (bool, error)
	Update(ctx context.Context, db *gorm.DB, allocation *Allocation) error
}
