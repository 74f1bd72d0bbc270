package repository

import (
	"context"

	"github.com/fintutto/zugang/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, decision *domain.AccessDecision) error {
	return db.WithContext(ctx).Create(decision).Error
}
