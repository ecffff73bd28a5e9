// Package domain contains recipe types. Guest recipes belong to a single
// user; group recipes live under a group and track who added them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type GuestRecipe struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	Title     string       `gorm:"type:text;not null"`
	Notes     string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GuestRecipe) TableName() string { return "guest_recipes" }

type GroupRecipe struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	GroupID   snowflake.ID `gorm:"column:group_id;not null;index"`
	AddedBy   snowflake.ID `gorm:"column:added_by;not null;index"`
	Title     string       `gorm:"type:text;not null"`
	Notes     string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GroupRecipe) TableName() string { return "group_recipes" }
