package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreatePermission(ctx context.Context, db *gorm.DB, permission *Permission) error
	FindPermissionByName(ctx context.Context, db *gorm.DB, name string) (*Permission, error)
	ListPermissions(ctx context.Context, db *gorm.DB) ([]Permission, error)

	CreateRole(ctx context.Context, db *gorm.DB, role *Role, permissionIDs []snowflake.ID) error
	FindRoleByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Role, error)
	ListRoles(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Role, error)
	ReplaceRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionIDs []snowflake.ID) error
	PermissionIDsForRoles(ctx context.Context, db *gorm.DB, roleIDs []snowflake.ID) ([]snowflake.ID, error)
	PermissionNamesForRole(ctx context.Context, db *gorm.DB, roleID snowflake.ID) ([]string, error)

	CreateGrant(ctx context.Context, db *gorm.DB, grant *Grant) error
	FindGrantByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Grant, error)
	ListGrants(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) ([]Grant, error)
	UpdateGrant(ctx context.Context, db *gorm.DB, grant *Grant) error
}
