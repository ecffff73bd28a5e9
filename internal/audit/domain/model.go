// Package domain contains audit trail types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ActionInvitationAccepted = "invitation.accepted"
	ActionInvitationCreated  = "invitation.created"
	ActionInvitationCancel   = "invitation.cancelled"
	ActionOwnershipTransfer  = "group.ownership_transferred"
	ActionAccountSoftDelete  = "account.soft_deleted"
	ActionAccountHardDelete  = "account.hard_deleted"
)

type Event struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ActorID    snowflake.ID      `gorm:"column:actor_id;index"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"column:target_type;type:text"`
	TargetID   string            `gorm:"column:target_id;type:text"`
	Detail     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

func (Event) TableName() string { return "audit_events" }
