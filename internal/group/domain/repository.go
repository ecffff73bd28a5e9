package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateGroup(ctx context.Context, group *Group) error
	FindGroupByID(ctx context.Context, id snowflake.ID) (*Group, error)
	UpdateOwner(ctx context.Context, groupID, ownerID snowflake.ID) error
	DeleteGroup(ctx context.Context, groupID snowflake.ID) error
	ListGroupsByUser(ctx context.Context, userID snowflake.ID) ([]GroupWithRole, error)
	ListOwnedGroups(ctx context.Context, ownerID snowflake.ID) ([]Group, error)

	// InsertMemberIgnoreConflict inserts a membership and reports whether a
	// row was written. A conflicting (group_id, user_id) row is left as is.
	InsertMemberIgnoreConflict(ctx context.Context, member *GroupMember) (bool, error)
	FindMember(ctx context.Context, groupID, userID snowflake.ID) (*GroupMember, error)
	ListMembers(ctx context.Context, groupID snowflake.ID) ([]GroupMember, error)
	EarliestMemberExcluding(ctx context.Context, groupID, excludeUserID snowflake.ID) (*GroupMember, error)
	UpdateMemberRole(ctx context.Context, memberID snowflake.ID, role string) error
	RemoveMember(ctx context.Context, groupID, userID snowflake.ID) error
	DeleteMembershipsByUser(ctx context.Context, userID snowflake.ID) error
	CountMembersWithRole(ctx context.Context, groupID snowflake.ID, role string) (int64, error)
}
