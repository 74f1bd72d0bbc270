// Package seed bootstraps the permission catalog and a first admin so a
// fresh deployment can be managed without manual SQL.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	rbacdomain "github.com/fintutto/zugang/internal/rbac/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail   = "admin@fintutto.de"
	defaultAdminDisplay = "FinTuttO Admin"
)

// The catalog is append-only; entries here are inserted once and never
// renamed afterwards.
var defaultPermissions = []string{
	"objects.create",
	"objects.view",
	"tenants.invite",
	"documents.upload",
	"documents.view",
	"payments.create",
	"payments.view",
	"reports.view",
	"users.manage",
}

// EnsurePermissionCatalog inserts any catalog permission that does not exist
// yet.
func EnsurePermissionCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range defaultPermissions {
			var count int64
			if err := tx.Model(&rbacdomain.Permission{}).Where("name = ?", name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			record := rbacdomain.Permission{
				ID:        node.Generate(),
				Name:      name,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureBootstrapAdmin creates a platform admin when none exists.
func EnsureBootstrapAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&identitydomain.User{}).Where("role = ?", identitydomain.RoleAdmin).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		admin := identitydomain.User{
			ID:          node.Generate(),
			Email:       defaultAdminEmail,
			DisplayName: defaultAdminDisplay,
			Role:        identitydomain.RoleAdmin,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Create(&admin).Error
	})
}
