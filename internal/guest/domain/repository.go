package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateGuest(ctx context.Context, guest *Guest) error
	ListGuestsByUser(ctx context.Context, userID snowflake.ID) ([]Guest, error)
	HasGuests(ctx context.Context, userID snowflake.ID) (bool, error)
	DeleteGuestsByUser(ctx context.Context, userID snowflake.ID) error

	AppendLog(ctx context.Context, entry *CommunicationLog) error
	DeleteLogsByUser(ctx context.Context, userID snowflake.ID) error
}
