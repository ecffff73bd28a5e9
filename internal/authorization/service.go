package authorization

import (
	"context"
	"errors"
)

var (
	ErrInvalidActor  = errors.New("authorization: invalid actor")
	ErrInvalidGroup  = errors.New("authorization: invalid group")
	ErrInvalidObject = errors.New("authorization: invalid object")
	ErrInvalidAction = errors.New("authorization: invalid action")
	ErrForbidden     = errors.New("authorization: forbidden")
)

// Service answers "may this actor perform this action on this object
// within this group". Actors are "system" or "user:<id>"; the role a
// user holds comes from their group membership row.
type Service interface {
	Authorize(ctx context.Context, actor string, groupID string, object string, action string) error
}
