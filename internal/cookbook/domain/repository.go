package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateCookbook(ctx context.Context, cookbook *Cookbook) error
	ListCookbooksByUser(ctx context.Context, userID snowflake.ID) ([]Cookbook, error)
	HasCookbooks(ctx context.Context, userID snowflake.ID) (bool, error)
	DeleteCookbooksByUser(ctx context.Context, userID snowflake.ID) error

	CreateShippingAddress(ctx context.Context, addr *ShippingAddress) error
	DeleteShippingAddressesByUser(ctx context.Context, userID snowflake.ID) error
}
