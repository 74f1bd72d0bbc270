package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/organization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Create(org).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&org).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Organization, error) {
	var items []domain.Organization
	if err := db.WithContext(ctx).Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	if org == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE organizations SET name = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		org.Name,
		org.UpdatedAt,
		org.ID,
	).Error
}

func (r *repo) Archive(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Organization{}, "id = ?", id).Error
}

func (r *repo) AddMember(ctx context.Context, db *gorm.DB, member *domain.Membership) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) ListMembers(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.Membership, error) {
	var items []domain.Membership
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) IsMember(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
