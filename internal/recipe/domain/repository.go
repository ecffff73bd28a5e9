package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateGuestRecipe(ctx context.Context, recipe *GuestRecipe) error
	ListGuestRecipesByUser(ctx context.Context, userID snowflake.ID) ([]GuestRecipe, error)
	HasGuestRecipes(ctx context.Context, userID snowflake.ID) (bool, error)
	DeleteGuestRecipesByUser(ctx context.Context, userID snowflake.ID) error

	CreateGroupRecipe(ctx context.Context, recipe *GroupRecipe) error
	HasGroupRecipesInGroups(ctx context.Context, groupIDs []snowflake.ID) (bool, error)
	ListGroupRecipes(ctx context.Context, groupID snowflake.ID) ([]GroupRecipe, error)
	HasGroupRecipesAddedBy(ctx context.Context, userID snowflake.ID) (bool, error)
	DeleteGroupRecipesAddedBy(ctx context.Context, userID snowflake.ID) error
	DeleteGroupRecipesByGroup(ctx context.Context, groupID snowflake.ID) error
}
