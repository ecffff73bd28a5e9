// Package domain contains cookbook order types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Cookbook struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	Title     string       `gorm:"type:text;not null"`
	Status    string       `gorm:"type:text;not null;default:'draft'"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Cookbook) TableName() string { return "cookbooks" }

type ShippingAddress struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	UserID     snowflake.ID `gorm:"column:user_id;not null;index"`
	Name       string       `gorm:"type:text;not null"`
	Line1      string       `gorm:"type:text;not null"`
	Line2      string       `gorm:"type:text"`
	City       string       `gorm:"type:text"`
	Region     string       `gorm:"type:text"`
	PostalCode string       `gorm:"column:postal_code;type:text"`
	Country    string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ShippingAddress) TableName() string { return "shipping_addresses" }
