// Package domain contains waitlist types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Entry struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Email     string       `gorm:"type:text;not null;uniqueIndex"`
	Status    string       `gorm:"type:text;not null;default:'pending'"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Entry) TableName() string { return "waitlist" }
