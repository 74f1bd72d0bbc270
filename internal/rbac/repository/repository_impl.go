package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/rbac/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreatePermission(ctx context.Context, db *gorm.DB, permission *domain.Permission) error {
	return db.WithContext(ctx).Create(permission).Error
}

func (r *repo) FindPermissionByName(ctx context.Context, db *gorm.DB, name string) (*domain.Permission, error) {
	var p domain.Permission
	err := db.WithContext(ctx).
		Where("name = ?", strings.TrimSpace(name)).
		First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListPermissions(ctx context.Context, db *gorm.DB) ([]domain.Permission, error) {
	var items []domain.Permission
	if err := db.WithContext(ctx).Order("name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateRole(ctx context.Context, db *gorm.DB, role *domain.Role, permissionIDs []snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		return createRolePermissions(tx, role.ID, permissionIDs, role.CreatedAt)
	})
}

func (r *repo) FindRoleByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Role, error) {
	var role domain.Role
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&role).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *repo) ListRoles(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.Role, error) {
	var items []domain.Role
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReplaceRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionIDs []snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM role_permissions WHERE role_id = ?`, roleID).Error; err != nil {
			return err
		}
		return createRolePermissions(tx, roleID, permissionIDs, time.Now().UTC())
	})
}

func (r *repo) PermissionIDsForRoles(ctx context.Context, db *gorm.DB, roleIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.RolePermission{}).
		Where("role_id IN ?", roleIDs).
		Distinct().
		Pluck("permission_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) PermissionNamesForRole(ctx context.Context, db *gorm.DB, roleID snowflake.ID) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).Raw(
		`SELECT p.name
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = ?
		 ORDER BY p.name`,
		roleID,
	).Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *repo) CreateGrant(ctx context.Context, db *gorm.DB, grant *domain.Grant) error {
	return db.WithContext(ctx).Create(grant).Error
}

func (r *repo) FindGrantByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Grant, error) {
	var grant domain.Grant
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&grant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *repo) ListGrants(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) ([]domain.Grant, error) {
	var items []domain.Grant
	err := db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateGrant(ctx context.Context, db *gorm.DB, grant *domain.Grant) error {
	if grant == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE user_roles SET expires_at = ? WHERE id = ?`,
		grant.ExpiresAt,
		grant.ID,
	).Error
}

func createRolePermissions(tx *gorm.DB, roleID snowflake.ID, permissionIDs []snowflake.ID, now time.Time) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([]domain.RolePermission, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		rows = append(rows, domain.RolePermission{
			RoleID:       roleID,
			PermissionID: pid,
			CreatedAt:    now,
		})
	}
	return tx.Create(&rows).Error
}
