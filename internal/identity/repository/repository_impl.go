package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.User, error) {
	stmt := db.WithContext(ctx).Model(&domain.User{})

	if filter.Email != "" {
		stmt = stmt.Where("email = ?", strings.ToLower(filter.Email))
	}
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	var items []domain.User
	if err := stmt.Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, user *domain.User) error {
	if user == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE users
		 SET email = ?, display_name = ?, role = ?, billing_customer_id = ?, active = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.DisplayName,
		user.Role,
		user.BillingCustomerID,
		user.Active,
		user.Metadata,
		user.UpdatedAt,
		user.ID,
	).Error
}
