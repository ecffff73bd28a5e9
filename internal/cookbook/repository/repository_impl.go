package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/cookbook/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateCookbook(ctx context.Context, cookbook *domain.Cookbook) error {
	return r.db.WithContext(ctx).Create(cookbook).Error
}

func (r *repository) ListCookbooksByUser(ctx context.Context, userID snowflake.ID) ([]domain.Cookbook, error) {
	var cookbooks []domain.Cookbook
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cookbooks).Error
	if err != nil {
		return nil, err
	}
	return cookbooks, nil
}

func (r *repository) HasCookbooks(ctx context.Context, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Cookbook{}).
		Where("user_id = ?", userID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) DeleteCookbooksByUser(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Cookbook{}).Error
}

func (r *repository) CreateShippingAddress(ctx context.Context, addr *domain.ShippingAddress) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

func (r *repository) DeleteShippingAddressesByUser(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.ShippingAddress{}).Error
}
