// Package domain contains guest-list types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Guest struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Guest) TableName() string { return "guests" }

// CommunicationLog records a message sent to a guest.
type CommunicationLog struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	UserID  snowflake.ID `gorm:"column:user_id;not null;index"`
	GuestID snowflake.ID `gorm:"column:guest_id;not null;index"`
	Channel string       `gorm:"type:text;not null"`
	Subject string       `gorm:"type:text"`
	SentAt  time.Time    `gorm:"column:sent_at;not null;default:CURRENT_TIMESTAMP"`
}

func (CommunicationLog) TableName() string { return "communication_log" }
