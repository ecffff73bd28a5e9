package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Grant describes a membership to upsert.
type Grant struct {
	GroupID         snowflake.ID
	UserID          snowflake.ID
	Role            string
	RelationshipTag string
	InvitedBy       snowflake.ID
}

type Service interface {
	CreateGroup(ctx context.Context, ownerID snowflake.ID, name string) (*Group, error)
	GetGroup(ctx context.Context, id snowflake.ID) (*Group, error)
	ListGroupsByUser(ctx context.Context, userID snowflake.ID) ([]GroupWithRole, error)
	ListOwnedGroups(ctx context.Context, ownerID snowflake.ID) ([]Group, error)
	ListMembers(ctx context.Context, groupID snowflake.ID) ([]GroupMember, error)
	IsMember(ctx context.Context, groupID, userID snowflake.ID) (bool, error)
	MemberRole(ctx context.Context, groupID, userID snowflake.ID) (string, error)

	// GrantMembership is idempotent. An existing membership keeps its role
	// and is reported through GrantResult.AlreadyMember.
	GrantMembership(ctx context.Context, grant Grant) (*GrantResult, error)
	RemoveMembership(ctx context.Context, groupID, userID snowflake.ID) error

	// TransferOwnership promotes the earliest-joined remaining member and
	// points the group's owner column at them in one transaction. Returns
	// ErrNoOtherMembers when the departing owner is the only member.
	TransferOwnership(ctx context.Context, groupID, fromUserID snowflake.ID) (*GroupMember, error)
}
