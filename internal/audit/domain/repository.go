package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/pkg/db/pagination"
)

type ListFilter struct {
	ActorID snowflake.ID
	Action  string
	pagination.Pagination
}

type Repository interface {
	Append(ctx context.Context, event *Event) error
	List(ctx context.Context, filter ListFilter) ([]Event, *pagination.PageInfo, error)
}
