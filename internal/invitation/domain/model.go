// Package domain contains invitation token types. Three token families are
// persisted here: group invitations, recipe-collection links, and
// purchase-activation tokens.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

const (
	DefaultInvitationTTL = 7 * 24 * time.Hour
	ActivationTTL        = 30 * 24 * time.Hour
)

// Invitation is a pending invite of an email address into a group. The
// token is the primary lookup key and transitions pending to accepted at
// most once; accepted is terminal.
type Invitation struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Token           string       `gorm:"type:text;not null;uniqueIndex"`
	GroupID         snowflake.ID `gorm:"column:group_id;not null;index"`
	InviteeEmail    string       `gorm:"column:invitee_email;type:text;not null;index"`
	InviterID       snowflake.ID `gorm:"column:inviter_id;not null;index"`
	RelationshipTag string       `gorm:"column:relationship_tag;type:text"`
	Status          string       `gorm:"type:text;not null;default:'pending'"`
	ExpiresAt       time.Time    `gorm:"column:expires_at;not null"`
	AcceptedAt      *time.Time   `gorm:"column:accepted_at"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Invitation) TableName() string { return "group_invitations" }

// Pending reports whether the invitation can still be accepted.
func (i *Invitation) Pending() bool { return i.Status == StatusPending }

// CollectionLink is a per-user shareable token that lets guests submit
// recipes without an account.
type CollectionLink struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;uniqueIndex"`
	Token     string       `gorm:"type:text;not null;uniqueIndex"`
	Enabled   bool         `gorm:"not null;default:true"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CollectionLink) TableName() string { return "collection_links" }

// ActivationToken gates a paid purchase until the buyer activates it.
type ActivationToken struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Token       string       `gorm:"type:text;not null;uniqueIndex"`
	Email       string       `gorm:"type:text;not null;index"`
	Status      string       `gorm:"type:text;not null;default:'pending'"`
	ExpiresAt   time.Time    `gorm:"column:expires_at;not null"`
	ActivatedAt *time.Time   `gorm:"column:activated_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ActivationToken) TableName() string { return "purchase_activations" }
