package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/guest/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateGuest(ctx context.Context, guest *domain.Guest) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

func (r *repository) ListGuestsByUser(ctx context.Context, userID snowflake.ID) ([]domain.Guest, error) {
	var guests []domain.Guest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&guests).Error
	if err != nil {
		return nil, err
	}
	return guests, nil
}

func (r *repository) HasGuests(ctx context.Context, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Guest{}).
		Where("user_id = ?", userID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) DeleteGuestsByUser(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Guest{}).Error
}

func (r *repository) AppendLog(ctx context.Context, entry *domain.CommunicationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) DeleteLogsByUser(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CommunicationLog{}).Error
}
