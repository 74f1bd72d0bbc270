package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, org *Organization) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	List(ctx context.Context, db *gorm.DB) ([]Organization, error)
	Update(ctx context.Context, db *gorm.DB, org *Organization) error
	Archive(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	AddMember(ctx context.Context, db *gorm.DB, member *Membership) error
	ListMembers(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Membership, error)
	IsMember(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (bool, error)
}
