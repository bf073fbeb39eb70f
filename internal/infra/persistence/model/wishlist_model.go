package model

import (
	"time"

	"github.com/google/uuid"
)

// WishlistSubscriptionModel mirrors the 'wishlist_subscriptions' table.
type WishlistSubscriptionModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind              string    `gorm:"type:varchar(16);not null"`
	Target            string    `gorm:"type:varchar(100);not null"`
	Active            bool      `gorm:"not null;index"`
	NotifyEmail       bool      `gorm:"not null"`
	NotifyApp         bool      `gorm:"not null"`
	NotificationCount int       `gorm:"not null"`
	LastNotifiedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (WishlistSubscriptionModel) TableName() string {
	return "wishlist_subscriptions"
}

// WishlistMatchModel mirrors the 'wishlist_matches' table. The pair index deduplicates matcher runs.
type WishlistMatchModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SubscriptionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_match_pair,priority:1"`
	ItemID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_match_pair,priority:2;index"`
	AppSent        bool       `gorm:"not null"`
	EmailSent      bool       `gorm:"not null"`
	NotificationID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (WishlistMatchModel) TableName() string {
	return "wishlist_matches"
}
