// Package domain contains core types for groups and memberships.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether role is one of the membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Group is a shared collection of members and recipes.
type Group struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OwnerID   snowflake.ID `gorm:"column:owner_id;not null;index"`
	Name      string       `gorm:"type:text;not null"`
	Slug      string       `gorm:"type:text;not null;index"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Group) TableName() string { return "groups" }

// GroupMember links a user to a group with a role. The (group_id, user_id)
// pair is unique so a user holds at most one membership per group.
type GroupMember struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	GroupID         snowflake.ID `gorm:"column:group_id;not null;uniqueIndex:ux_group_members_group_user"`
	UserID          snowflake.ID `gorm:"column:user_id;not null;uniqueIndex:ux_group_members_group_user"`
	Role            string       `gorm:"type:text;not null"`
	RelationshipTag string       `gorm:"column:relationship_tag;type:text"`
	InvitedBy       snowflake.ID `gorm:"column:invited_by"`
	JoinedAt        time.Time    `gorm:"column:joined_at;not null;default:CURRENT_TIMESTAMP"`
}

func (GroupMember) TableName() string { return "group_members" }

// GroupWithRole is a group joined with the requesting user's role.
type GroupWithRole struct {
	ID        snowflake.ID `gorm:"column:id"`
	Name      string       `gorm:"column:name"`
	Slug      string       `gorm:"column:slug"`
	OwnerID   snowflake.ID `gorm:"column:owner_id"`
	Role      string       `gorm:"column:role"`
	CreatedAt time.Time    `gorm:"column:created_at"`
}

// GrantResult reports the outcome of a membership grant.
type GrantResult struct {
	Member        *GroupMember
	AlreadyMember bool
}
