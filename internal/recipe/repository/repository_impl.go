package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/recipe/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateGuestRecipe(ctx context.Context, recipe *domain.GuestRecipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *repository) ListGuestRecipesByUser(ctx context.Context, userID snowflake.ID) ([]domain.GuestRecipe, error) {
	var recipes []domain.GuestRecipe
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *repository) HasGuestRecipes(ctx context.Context, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.GuestRecipe{}).
		Where("user_id = ?", userID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) DeleteGuestRecipesByUser(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.GuestRecipe{}).Error
}

func (r *repository) CreateGroupRecipe(ctx context.Context, recipe *domain.GroupRecipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *repository) ListGroupRecipes(ctx context.Context, groupID snowflake.ID) ([]domain.GroupRecipe, error) {
	var recipes []domain.GroupRecipe
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *repository) HasGroupRecipesInGroups(ctx context.Context, groupIDs []snowflake.ID) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.GroupRecipe{}).
		Where("group_id IN ?", groupIDs).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasGroupRecipesAddedBy(ctx context.Context, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.GroupRecipe{}).
		Where("added_by = ?", userID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) DeleteGroupRecipesAddedBy(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("added_by = ?", userID).Delete(&domain.GroupRecipe{}).Error
}

func (r *repository) DeleteGroupRecipesByGroup(ctx context.Context, groupID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&domain.GroupRecipe{}).Error
}
