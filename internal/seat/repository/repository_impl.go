package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/seat/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, allocation *domain.Allocation) error {
	return db.WithContext(ctx).Create(allocation).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Allocation, error) {
	var a domain.Allocation
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Allocation, error) {
	stmt := db.WithContext(ctx).Model(&domain.Allocation{})

	if filter.UserID != "" {
		stmt = stmt.Where("receiving_user_id = ?", filter.UserID)
	}
	if filter.AppID != "" {
		stmt = stmt.Where("app_id = ?", strings.ToLower(filter.AppID))
	}
	if filter.Active != nil {
		stmt = stmt.Where("is_active = ?", *filter.Active)
	}

	var items []domain.Allocation
	if err := stmt.Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) HasActive(ctx context.Context, db *gorm.DB, userID snowflake.ID, appID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("receiving_user_id = ? AND app_id = ? AND is_active = ?", userID, strings.ToLower(strings.TrimSpace(appID)), true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, allocation *domain.Allocation) error {
	if allocation == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE seat_allocations SET seat_type = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		allocation.SeatType,
		allocation.IsActive,
		allocation.UpdatedAt,
		allocation.ID,
	).Error
}
